package dto

import (
	"github.com/qs3c/phim_premium_server/internal/model"
)

// PlanListResponse 套餐列表
type PlanListResponse struct {
	Plans []model.Plan `json:"plans"`
}

// CreatePaymentRequest 创建支付请求
type CreatePaymentRequest struct {
	PlanKey string `json:"planKey"`
}

// CreatePaymentResponse 网关跳转地址
type CreatePaymentResponse struct {
	PaymentURL string `json:"paymentUrl"`
}

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// PremiumStatus 会员资格
type PremiumStatus struct {
	IsPremium    bool                `json:"isPremium"`
	Subscription *model.Subscription `json:"subscription,omitempty"`
	Role         string              `json:"role,omitempty"`
}

// CanWatchResponse 影片观看权限
type CanWatchResponse struct {
	Slug         string `json:"slug"`
	PremiumTitle bool   `json:"premiumTitle"`
	CanWatch     bool   `json:"canWatch"`
	Role         string `json:"role,omitempty"`
}

// AddMemberRequest 添加共享成员
type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// MemberItem 共享成员
type MemberItem struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	JoinedAt string `json:"joinedAt"`
}

// MemberListResponse 共享成员列表
type MemberListResponse struct {
	SubscriptionID int64        `json:"subscriptionId"`
	MaxMembers     int          `json:"maxMembers"`
	Members        []MemberItem `json:"members"`
}

// PremiumMovieRequest 标记会员影片
type PremiumMovieRequest struct {
	Slug string `json:"slug" binding:"required,max=191"`
	Note string `json:"note" binding:"max=255"`
}

// PremiumMovieDeleteRequest 取消会员影片
type PremiumMovieDeleteRequest struct {
	Slug string `json:"slug" binding:"required"`
}
