package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/qs3c/phim_premium_server/internal/api/middleware"
	"github.com/qs3c/phim_premium_server/internal/model/dto"
	"github.com/qs3c/phim_premium_server/internal/pkg/logger"
	"github.com/qs3c/phim_premium_server/internal/pkg/response"
	"github.com/qs3c/phim_premium_server/internal/pkg/vnpay"
	"github.com/qs3c/phim_premium_server/internal/service"
)

type PremiumHandler struct {
	planService        *service.PlanService
	paymentService     *service.PaymentService
	entitlementService *service.EntitlementService
	resultURL          string
}

func NewPremiumHandler(
	planService *service.PlanService,
	paymentService *service.PaymentService,
	entitlementService *service.EntitlementService,
	resultURL string,
) *PremiumHandler {
	return &PremiumHandler{
		planService:        planService,
		paymentService:     paymentService,
		entitlementService: entitlementService,
		resultURL:          resultURL,
	}
}

// Plans 上架套餐
// GET /api/v1/premium/plans
func (h *PremiumHandler) Plans(c *gin.Context) {
	plans, err := h.planService.ListActivePlans(c.Request.Context())
	if err != nil {
		logger.L.WithError(err).Error("list plans failed")
		response.ServerError(c, "")
		return
	}

	response.Success(c, dto.PlanListResponse{Plans: plans})
}

// CreatePayment 创建支付并返回网关地址
// POST /api/v1/premium/create-payment
func (h *PremiumHandler) CreatePayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.PlanKey) == "" {
		response.ParamError(c, service.ErrPlanKeyRequired.Error())
		return
	}

	paymentURL, err := h.paymentService.CreateIntent(c.Request.Context(), userID, req.PlanKey, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanKeyRequired):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrPlanNotFound):
			response.NotFoundError(c, err.Error())
		default:
			logger.L.WithField("user_id", userID).WithError(err).Error("create payment failed")
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, dto.CreatePaymentResponse{PaymentURL: paymentURL})
}

// VNPayReturn 网关回跳，处理后重定向到结果页
// GET /api/v1/premium/vnpay-return
func (h *PremiumHandler) VNPayReturn(c *gin.Context) {
	params := vnpay.ParamsFromQuery(c.Request.URL.Query())

	// 用户从网关回来后总要落到结果页
	defer func() {
		if r := recover(); r != nil {
			logger.L.WithFields(logrus.Fields{
				"transaction_id": params[vnpay.ParamTxnRef],
				"panic":          r,
			}).Error("gateway return panicked")
			c.Redirect(http.StatusFound, ResultRedirectURL(h.resultURL, service.ReturnError))
		}
	}()

	result := h.paymentService.HandleReturn(c.Request.Context(), params)

	c.Redirect(http.StatusFound, ResultRedirectURL(h.resultURL, result))
}

// Status 当前用户的会员资格，未登录返回 isPremium=false
// GET /api/v1/premium/status
func (h *PremiumHandler) Status(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Success(c, dto.PremiumStatus{IsPremium: false})
		return
	}

	status, err := h.entitlementService.IsPremium(userID)
	if err != nil {
		logger.L.WithField("user_id", userID).WithError(err).Error("premium status failed")
		response.ServerError(c, "")
		return
	}

	response.Success(c, status)
}

// CanWatch 影片观看权限
// GET /api/v1/premium/can-watch?slug=
func (h *PremiumHandler) CanWatch(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	resp, err := h.entitlementService.CanWatch(userID, c.Query("slug"))
	if err != nil {
		if errors.Is(err, service.ErrSlugRequired) {
			response.ParamError(c, err.Error())
			return
		}
		logger.L.WithError(err).Error("can-watch check failed")
		response.ServerError(c, "")
		return
	}

	response.Success(c, resp)
}

// ResultRedirectURL 在结果页地址上追加 payment=<status>，保留已有查询参数
func ResultRedirectURL(base string, status service.ReturnStatus) string {
	if base == "" {
		base = "/profile"
	}

	u, err := url.Parse(base)
	if err != nil {
		return "/profile?payment=" + url.QueryEscape(string(status))
	}

	query := u.Query()
	query.Set("payment", string(status))
	u.RawQuery = query.Encode()
	return u.String()
}
