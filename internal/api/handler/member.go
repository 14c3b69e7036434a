package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/phim_premium_server/internal/api/middleware"
	"github.com/qs3c/phim_premium_server/internal/model/dto"
	"github.com/qs3c/phim_premium_server/internal/pkg/logger"
	"github.com/qs3c/phim_premium_server/internal/pkg/response"
	"github.com/qs3c/phim_premium_server/internal/service"
)

type MemberHandler struct {
	membershipService *service.MembershipService
}

func NewMemberHandler(membershipService *service.MembershipService) *MemberHandler {
	return &MemberHandler{
		membershipService: membershipService,
	}
}

// List 共享成员列表
// GET /api/v1/premium/members
func (h *MemberHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	resp, err := h.membershipService.ListMembers(userID)
	if err != nil {
		h.handleError(c, userID, err)
		return
	}

	response.Success(c, resp)
}

// Add 按邮箱添加共享成员
// POST /api/v1/premium/members
func (h *MemberHandler) Add(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := h.membershipService.AddMember(userID, req.Email)
	if err != nil {
		h.handleError(c, userID, err)
		return
	}

	response.SuccessWithMessage(c, "添加成功", item)
}

// Remove 移除共享成员
// DELETE /api/v1/premium/members/:userId
func (h *MemberHandler) Remove(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	memberID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || memberID <= 0 {
		response.ParamError(c, "无效的用户ID")
		return
	}

	if err := h.membershipService.RemoveMember(userID, memberID); err != nil {
		h.handleError(c, userID, err)
		return
	}

	response.SuccessWithMessage(c, "移除成功", nil)
}

func (h *MemberHandler) handleError(c *gin.Context, userID int64, err error) {
	switch {
	case errors.Is(err, service.ErrNoOwnedSubscription):
		response.PermissionError(c, err.Error())
	case errors.Is(err, service.ErrMemberLimitReached),
		errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrCannotAddSelf):
		response.ConflictError(c, err.Error())
	case errors.Is(err, service.ErrMemberUserNotFound),
		errors.Is(err, service.ErrMemberNotFound):
		response.NotFoundError(c, err.Error())
	default:
		logger.L.WithField("user_id", userID).WithError(err).Error("membership operation failed")
		response.ServerError(c, "")
	}
}
