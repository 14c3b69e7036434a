package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/phim_premium_server/internal/model/dto"
	"github.com/qs3c/phim_premium_server/internal/pkg/logger"
	"github.com/qs3c/phim_premium_server/internal/pkg/response"
	"github.com/qs3c/phim_premium_server/internal/service"
)

type PremiumMovieHandler struct {
	movieService *service.PremiumMovieService
}

func NewPremiumMovieHandler(movieService *service.PremiumMovieService) *PremiumMovieHandler {
	return &PremiumMovieHandler{
		movieService: movieService,
	}
}

// List 会员影片列表
// GET /api/v1/admin/premium-movies
func (h *PremiumMovieHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	movies, total, err := h.movieService.List(page, pageSize)
	if err != nil {
		logger.L.WithError(err).Error("list premium movies failed")
		response.ServerError(c, "")
		return
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	response.SuccessPage(c, total, page, pageSize, movies)
}

// Mark 标记会员影片
// POST /api/v1/admin/premium-movies
func (h *PremiumMovieHandler) Mark(c *gin.Context) {
	var req dto.PremiumMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	movie, err := h.movieService.Mark(&req)
	if err != nil {
		if errors.Is(err, service.ErrSlugRequired) {
			response.ParamError(c, err.Error())
			return
		}
		logger.L.WithError(err).Error("mark premium movie failed")
		response.ServerError(c, "")
		return
	}

	response.Success(c, movie)
}

// Unmark 取消会员影片，slug 可放在查询参数或请求体
// DELETE /api/v1/admin/premium-movies
func (h *PremiumMovieHandler) Unmark(c *gin.Context) {
	slug := c.Query("slug")
	if slug == "" {
		var req dto.PremiumMovieDeleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ParamError(c, service.ErrSlugRequired.Error())
			return
		}
		slug = req.Slug
	}

	if err := h.movieService.Unmark(slug); err != nil {
		switch {
		case errors.Is(err, service.ErrSlugRequired):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrPremiumMovieNotFound):
			response.NotFoundError(c, err.Error())
		default:
			logger.L.WithError(err).Error("unmark premium movie failed")
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "已取消", nil)
}

// Check 影片是否为会员影片
// GET /api/v1/premium-check/check?slug=
func (h *PremiumMovieHandler) Check(c *gin.Context) {
	ok, err := h.movieService.IsPremiumTitle(c.Query("slug"))
	if err != nil {
		if errors.Is(err, service.ErrSlugRequired) {
			response.ParamError(c, err.Error())
			return
		}
		logger.L.WithError(err).Error("premium title check failed")
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"isPremium": ok})
}
