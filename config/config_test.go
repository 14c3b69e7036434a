package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
server:
  port: 9090
vnpay:
  tmn_code: DEMO
  hash_secret: secret
premium:
  pending_ttl: 30m
  plans:
    - key: personal_1m
      name: Personal
      price: 49000
      duration_months: 1
      max_members: 1
`

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", testConfigYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "DEMO", cfg.VNPay.TmnCode)
	assert.Equal(t, "vn", cfg.VNPay.Locale)
	assert.Equal(t, "/profile", cfg.VNPay.ResultURL)
	assert.Equal(t, 30*time.Minute, cfg.Premium.PendingTTL)
	assert.Equal(t, 5*time.Minute, cfg.Premium.PlanCacheTTL)
	assert.Equal(t, time.Hour, cfg.Premium.SweepGrace)

	require.Len(t, cfg.Premium.Plans, 1)
	assert.Equal(t, "personal_1m", cfg.Premium.Plans[0].Key)
	assert.Equal(t, int64(49000), cfg.Premium.Plans[0].Price)
	assert.Nil(t, cfg.Premium.Plans[0].IsActive)
}

func TestLoad_PrefersLocalConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", testConfigYAML)
	writeConfig(t, dir, "config.local.yaml", "vnpay:\n  tmn_code: LOCAL\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "LOCAL", cfg.VNPay.TmnCode)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	assert.Error(t, err)
}

func TestVNPayConfig_Validate(t *testing.T) {
	valid := VNPayConfig{
		TmnCode:    "DEMO",
		HashSecret: "secret",
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:8080/api/v1/premium/vnpay-return",
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(*VNPayConfig)
		missing string
	}{
		{"empty tmn_code", func(c *VNPayConfig) { c.TmnCode = "" }, "vnpay.tmn_code"},
		{"blank hash_secret", func(c *VNPayConfig) { c.HashSecret = "  " }, "vnpay.hash_secret"},
		{"empty pay_url", func(c *VNPayConfig) { c.PayURL = "" }, "vnpay.pay_url"},
		{"empty return_url", func(c *VNPayConfig) { c.ReturnURL = "" }, "vnpay.return_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}

	err := VNPayConfig{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vnpay.tmn_code, vnpay.hash_secret, vnpay.pay_url, vnpay.return_url")
}

func TestLoad_IncompleteVNPayFailsValidation(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", testConfigYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	// 示例配置只给了 tmn_code 与 hash_secret
	err = cfg.VNPay.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vnpay.pay_url")
	assert.NotContains(t, err.Error(), "vnpay.tmn_code")
}
