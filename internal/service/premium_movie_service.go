package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/qs3c/phim_premium_server/internal/model"
	"github.com/qs3c/phim_premium_server/internal/model/dto"
	"github.com/qs3c/phim_premium_server/internal/repository"
)

var ErrPremiumMovieNotFound = errors.New("会员影片不存在")

type PremiumMovieService struct {
	movieRepo *repository.PremiumMovieRepository
}

func NewPremiumMovieService(movieRepo *repository.PremiumMovieRepository) *PremiumMovieService {
	return &PremiumMovieService{movieRepo: movieRepo}
}

// List 分页获取会员影片
func (s *PremiumMovieService) List(page, pageSize int) ([]model.PremiumMovie, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	movies, total, err := s.movieRepo.List(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list premium movies: %w", err)
	}
	if movies == nil {
		movies = []model.PremiumMovie{}
	}
	return movies, total, nil
}

// Mark 标记为会员影片，重复标记时更新备注
func (s *PremiumMovieService) Mark(req *dto.PremiumMovieRequest) (*model.PremiumMovie, error) {
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		return nil, ErrSlugRequired
	}

	if err := s.movieRepo.Upsert(&model.PremiumMovie{Slug: slug, Note: req.Note}); err != nil {
		return nil, fmt.Errorf("mark premium movie: %w", err)
	}
	movie, err := s.movieRepo.GetBySlug(slug)
	if err != nil {
		return nil, fmt.Errorf("reload premium movie: %w", err)
	}
	return movie, nil
}

// Unmark 取消会员影片
func (s *PremiumMovieService) Unmark(slug string) error {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ErrSlugRequired
	}

	n, err := s.movieRepo.DeleteBySlug(slug)
	if err != nil {
		return fmt.Errorf("unmark premium movie: %w", err)
	}
	if n == 0 {
		return ErrPremiumMovieNotFound
	}
	return nil
}

// IsPremiumTitle 影片是否需要会员
func (s *PremiumMovieService) IsPremiumTitle(slug string) (bool, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return false, ErrSlugRequired
	}

	ok, err := s.movieRepo.ExistsBySlug(slug)
	if err != nil {
		return false, fmt.Errorf("check premium movie: %w", err)
	}
	return ok, nil
}
