package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/phim_premium_server/internal/model"
)

var seq int64

func nextSeq() int64 {
	return atomic.AddInt64(&seq, 1)
}

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	n := nextSeq()
	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	user := &model.User{
		Username:     fmt.Sprintf("testuser_%d", n),
		Email:        fmt.Sprintf("test_%d@example.com", n),
		PasswordHash: &passwordHash,
		Role:         model.RoleUser,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithUsername 设置用户名
func WithUsername(username string) func(*model.User) {
	return func(u *model.User) {
		u.Username = username
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = email
	}
}

// WithPasswordHash 设置密码哈希
func WithPasswordHash(hash string) func(*model.User) {
	return func(u *model.User) {
		u.PasswordHash = &hash
	}
}

// WithRole 设置角色
func WithRole(role string) func(*model.User) {
	return func(u *model.User) {
		u.Role = role
	}
}

// WithBanned 封禁用户
func WithBanned() func(*model.User) {
	return func(u *model.User) {
		u.IsBanned = true
	}
}

// TestPlan 创建测试套餐，默认 1 个月、单人、上架
func TestPlan(t *testing.T, db *gorm.DB, opts ...func(*model.Plan)) *model.Plan {
	t.Helper()

	n := nextSeq()
	plan := &model.Plan{
		Key:        fmt.Sprintf("plan_%d", n),
		Name:       fmt.Sprintf("Plan %d", n),
		Price:      49000,
		Currency:   "VND",
		Duration:   model.DurationOneMonth,
		MaxMembers: 1,
		IsActive:   true,
	}

	for _, opt := range opts {
		opt(plan)
	}

	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("Failed to create test plan: %v", err)
	}

	return plan
}

// WithPlanKey 设置套餐 key
func WithPlanKey(key string) func(*model.Plan) {
	return func(p *model.Plan) {
		p.Key = key
	}
}

// WithPlanName 设置套餐名称
func WithPlanName(name string) func(*model.Plan) {
	return func(p *model.Plan) {
		p.Name = name
	}
}

// WithPrice 设置价格
func WithPrice(price int64) func(*model.Plan) {
	return func(p *model.Plan) {
		p.Price = price
	}
}

// WithDuration 设置时长
func WithDuration(d model.PlanDuration) func(*model.Plan) {
	return func(p *model.Plan) {
		p.Duration = d
	}
}

// WithMaxMembers 设置最大成员数（含所有者）
func WithMaxMembers(n int) func(*model.Plan) {
	return func(p *model.Plan) {
		p.MaxMembers = n
	}
}

// WithInactive 下架
func WithInactive() func(*model.Plan) {
	return func(p *model.Plan) {
		p.IsActive = false
	}
}

// TestPayment 创建待支付记录
func TestPayment(t *testing.T, db *gorm.DB, userID int64, plan *model.Plan, opts ...func(*model.Payment)) *model.Payment {
	t.Helper()

	payment := &model.Payment{
		UserID:        userID,
		Amount:        plan.Price,
		Currency:      plan.Currency,
		Method:        model.PaymentMethodVNPay,
		Status:        model.PaymentPending,
		TransactionID: fmt.Sprintf("vnp_%d_%012x", time.Now().UnixMilli(), nextSeq()),
		Metadata:      model.NewIntentMetadata(plan),
	}

	for _, opt := range opts {
		opt(payment)
	}

	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("Failed to create test payment: %v", err)
	}

	return payment
}

// WithPaymentStatus 设置支付状态
func WithPaymentStatus(status model.PaymentStatus) func(*model.Payment) {
	return func(p *model.Payment) {
		p.Status = status
	}
}

// WithTransactionID 设置交易号
func WithTransactionID(txnRef string) func(*model.Payment) {
	return func(p *model.Payment) {
		p.TransactionID = txnRef
	}
}

// WithPaymentCreatedAt 设置创建时间
func WithPaymentCreatedAt(at time.Time) func(*model.Payment) {
	return func(p *model.Payment) {
		p.CreatedAt = at
		p.UpdatedAt = at
	}
}

// TestSubscription 创建订阅，默认有效期为昨天到 30 天后
func TestSubscription(t *testing.T, db *gorm.DB, ownerID, planID int64, opts ...func(*model.Subscription)) *model.Subscription {
	t.Helper()

	now := time.Now().UTC()
	sub := &model.Subscription{
		OwnerID:   ownerID,
		PlanID:    planID,
		StartDate: now.AddDate(0, 0, -1),
		EndDate:   now.AddDate(0, 0, 30),
		Status:    model.SubscriptionActive,
	}

	for _, opt := range opts {
		opt(sub)
	}

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

// WithPeriod 设置有效期
func WithPeriod(start, end time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.StartDate = start
		s.EndDate = end
	}
}

// WithSubscriptionStatus 设置订阅状态
func WithSubscriptionStatus(status model.SubscriptionStatus) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Status = status
	}
}

// WithPaymentID 关联支付
func WithPaymentID(paymentID int64) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.PaymentID = &paymentID
	}
}

// TestMember 添加共享成员
func TestMember(t *testing.T, db *gorm.DB, subscriptionID, userID int64) *model.SubscriptionMember {
	t.Helper()

	member := &model.SubscriptionMember{
		SubscriptionID: subscriptionID,
		UserID:         userID,
	}

	if err := db.Create(member).Error; err != nil {
		t.Fatalf("Failed to create test member: %v", err)
	}

	return member
}

// TestPremiumMovie 标记会员影片
func TestPremiumMovie(t *testing.T, db *gorm.DB, slug string) *model.PremiumMovie {
	t.Helper()

	movie := &model.PremiumMovie{Slug: slug}
	if err := db.Create(movie).Error; err != nil {
		t.Fatalf("Failed to create test premium movie: %v", err)
	}

	return movie
}
