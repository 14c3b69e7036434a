package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/phim_premium_server/internal/model/dto"
	"github.com/qs3c/phim_premium_server/internal/pkg/logger"
	"github.com/qs3c/phim_premium_server/internal/pkg/response"
)

const PremiumStatusKey = "premium_status"

// EntitlementChecker 会员资格查询
type EntitlementChecker interface {
	IsPremium(userID int64) (*dto.PremiumStatus, error)
}

// RequirePremium 会员检查中间件，需放在 Auth 之后
func RequirePremium(checker EntitlementChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		status, err := checker.IsPremium(userID)
		if err != nil {
			logger.L.WithField("user_id", userID).WithError(err).Error("premium check failed")
			response.ServerError(c, "会员检查失败")
			c.Abort()
			return
		}

		if !status.IsPremium {
			response.PremiumRequiredError(c, "需要开通会员")
			c.Abort()
			return
		}

		c.Set(PremiumStatusKey, status)
		c.Next()
	}
}

// GetPremiumStatus 由 RequirePremium 写入
func GetPremiumStatus(c *gin.Context) (*dto.PremiumStatus, bool) {
	v, exists := c.Get(PremiumStatusKey)
	if !exists {
		return nil, false
	}
	status, ok := v.(*dto.PremiumStatus)
	return status, ok
}
