package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/phim_premium_server/internal/model"
	"github.com/qs3c/phim_premium_server/internal/model/dto"
	"github.com/qs3c/phim_premium_server/internal/pkg/logger"
	"github.com/qs3c/phim_premium_server/internal/repository"
)

var (
	ErrNoOwnedSubscription = errors.New("没有可管理的会员订阅")
	ErrMemberLimitReached  = errors.New("共享成员已达上限")
	ErrAlreadyMember       = errors.New("该用户已是共享成员")
	ErrCannotAddSelf       = errors.New("不能添加自己为共享成员")
	ErrMemberUserNotFound  = errors.New("该邮箱未注册")
	ErrMemberNotFound      = errors.New("共享成员不存在")
)

// MembershipService 订阅所有者管理共享成员
type MembershipService struct {
	subRepo  *repository.SubscriptionRepository
	userRepo *repository.UserRepository
	tx       *repository.TxManager
	now      func() time.Time
}

func NewMembershipService(
	subRepo *repository.SubscriptionRepository,
	userRepo *repository.UserRepository,
	tx *repository.TxManager,
) *MembershipService {
	return &MembershipService{
		subRepo:  subRepo,
		userRepo: userRepo,
		tx:       tx,
		now:      time.Now,
	}
}

func (s *MembershipService) WithClock(now func() time.Time) *MembershipService {
	s.now = now
	return s
}

// ListMembers 获取当前订阅的共享成员
func (s *MembershipService) ListMembers(ownerID int64) (*dto.MemberListResponse, error) {
	sub, err := s.ownedSubscription(s.subRepo, ownerID)
	if err != nil {
		return nil, err
	}

	members, err := s.subRepo.ListMembers(sub.ID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	items := make([]dto.MemberItem, 0, len(members))
	for i := range members {
		items = append(items, buildMemberItem(&members[i]))
	}

	return &dto.MemberListResponse{
		SubscriptionID: sub.ID,
		MaxMembers:     maxMembersOf(sub),
		Members:        items,
	}, nil
}

// AddMember 按邮箱添加共享成员，所有者计入 maxMembers
func (s *MembershipService) AddMember(ownerID int64, email string) (*dto.MemberItem, error) {
	email = strings.TrimSpace(email)

	var item dto.MemberItem
	err := s.tx.Do(func(repos *repository.TxRepos) error {
		// 锁住订阅行，并发添加时名额检查与插入串行执行
		sub, err := repos.Subscriptions.LockActiveByOwner(ownerID, s.now())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoOwnedSubscription
			}
			return fmt.Errorf("lock owned subscription: %w", err)
		}

		user, err := repos.Users.GetByEmail(email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberUserNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}
		if user.ID == ownerID {
			return ErrCannotAddSelf
		}

		exists, err := repos.Subscriptions.IsMember(sub.ID, user.ID)
		if err != nil {
			return fmt.Errorf("check member: %w", err)
		}
		if exists {
			return ErrAlreadyMember
		}

		count, err := repos.Subscriptions.CountMembers(sub.ID)
		if err != nil {
			return fmt.Errorf("count members: %w", err)
		}
		if int(count)+1 >= maxMembersOf(sub) {
			return ErrMemberLimitReached
		}

		member := &model.SubscriptionMember{
			SubscriptionID: sub.ID,
			UserID:         user.ID,
		}
		if err := repos.Subscriptions.AddMember(member); err != nil {
			return fmt.Errorf("add member: %w", err)
		}
		member.User = user
		item = buildMemberItem(member)

		logger.L.WithField("user_id", ownerID).
			WithField("subscription_id", sub.ID).
			WithField("member_id", user.ID).
			Info("subscription member added")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveMember 移除共享成员
func (s *MembershipService) RemoveMember(ownerID, memberUserID int64) error {
	sub, err := s.ownedSubscription(s.subRepo, ownerID)
	if err != nil {
		return err
	}

	n, err := s.subRepo.RemoveMember(sub.ID, memberUserID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if n == 0 {
		return ErrMemberNotFound
	}

	logger.L.WithField("user_id", ownerID).
		WithField("subscription_id", sub.ID).
		WithField("member_id", memberUserID).
		Info("subscription member removed")
	return nil
}

func (s *MembershipService) ownedSubscription(repo *repository.SubscriptionRepository, ownerID int64) (*model.Subscription, error) {
	sub, err := repo.GetActiveByOwner(ownerID, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOwnedSubscription
		}
		return nil, fmt.Errorf("load owned subscription: %w", err)
	}
	return sub, nil
}

func maxMembersOf(sub *model.Subscription) int {
	if sub.Plan == nil || sub.Plan.MaxMembers < 1 {
		return 1
	}
	return sub.Plan.MaxMembers
}

func buildMemberItem(member *model.SubscriptionMember) dto.MemberItem {
	item := dto.MemberItem{
		UserID:   member.UserID,
		JoinedAt: member.CreatedAt.UTC().Format(time.RFC3339),
	}
	if member.User != nil {
		item.Username = member.User.Username
		item.Email = member.User.Email
	}
	return item
}
