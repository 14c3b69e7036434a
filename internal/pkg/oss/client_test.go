package oss

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/phim_premium_server/config"
)

func TestSettlementObjectKey(t *testing.T) {
	ict := time.FixedZone("ICT", 7*3600)
	settledAt := time.Date(2025, 3, 1, 2, 0, 0, 0, ict)

	key := SettlementObjectKey("vnp_1740816000000_a1b2c3d4e5f6", settledAt)

	assert.Equal(t, "payments/2025/02/28/vnp_1740816000000_a1b2c3d4e5f6.json", key)
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(&config.OSSConfig{
		Endpoint:        "oss-ap-southeast-1.aliyuncs.com",
		AccessKeyID:     "id",
		AccessKeySecret: "secret",
		BucketName:      "phim-audit",
	})

	require.NoError(t, err)
	assert.Equal(t, "phim-audit", client.bucketName)
	assert.NotNil(t, client.bucket)
}
