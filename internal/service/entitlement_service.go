package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/phim_premium_server/internal/model/dto"
	"github.com/qs3c/phim_premium_server/internal/repository"
)

var ErrSlugRequired = errors.New("slug 不能为空")

// EntitlementService 会员资格判定，只读
type EntitlementService struct {
	subRepo   *repository.SubscriptionRepository
	movieRepo *repository.PremiumMovieRepository
	now       func() time.Time
}

func NewEntitlementService(subRepo *repository.SubscriptionRepository, movieRepo *repository.PremiumMovieRepository) *EntitlementService {
	return &EntitlementService{
		subRepo:   subRepo,
		movieRepo: movieRepo,
		now:       time.Now,
	}
}

func (s *EntitlementService) WithClock(now func() time.Time) *EntitlementService {
	s.now = now
	return s
}

// IsPremium 先查本人购买的订阅，再查作为共享成员加入的订阅
func (s *EntitlementService) IsPremium(userID int64) (*dto.PremiumStatus, error) {
	if userID <= 0 {
		return &dto.PremiumStatus{IsPremium: false}, nil
	}
	now := s.now()

	owned, err := s.subRepo.GetActiveByOwner(userID, now)
	if err == nil {
		return &dto.PremiumStatus{IsPremium: true, Subscription: owned, Role: dto.RoleOwner}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load owned subscription: %w", err)
	}

	shared, err := s.subRepo.GetActiveByMember(userID, now)
	if err == nil {
		return &dto.PremiumStatus{IsPremium: true, Subscription: shared, Role: dto.RoleMember}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load shared subscription: %w", err)
	}

	return &dto.PremiumStatus{IsPremium: false}, nil
}

// CanWatch 未登录时 userID 为 0。非会员影片所有人可看。
func (s *EntitlementService) CanWatch(userID int64, slug string) (*dto.CanWatchResponse, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrSlugRequired
	}

	premiumTitle, err := s.movieRepo.ExistsBySlug(slug)
	if err != nil {
		return nil, fmt.Errorf("check premium title: %w", err)
	}

	resp := &dto.CanWatchResponse{Slug: slug, PremiumTitle: premiumTitle}
	if !premiumTitle {
		resp.CanWatch = true
		return resp, nil
	}

	status, err := s.IsPremium(userID)
	if err != nil {
		return nil, err
	}
	resp.CanWatch = status.IsPremium
	resp.Role = status.Role
	return resp, nil
}
