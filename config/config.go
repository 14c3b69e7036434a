package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	OSS      OSSConfig      `mapstructure:"oss"`
	CORS     CORSConfig     `mapstructure:"cors"`
	VNPay    VNPayConfig    `mapstructure:"vnpay"`
	Premium  PremiumConfig  `mapstructure:"premium"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// VNPayConfig 支付网关配置
type VNPayConfig struct {
	TmnCode    string `mapstructure:"tmn_code"`
	HashSecret string `mapstructure:"hash_secret"`
	PayURL     string `mapstructure:"pay_url"`
	ReturnURL  string `mapstructure:"return_url"` // 网关回跳到本服务的地址
	ResultURL  string `mapstructure:"result_url"` // 回跳处理完成后前端展示结果的页面
	Locale     string `mapstructure:"locale"`
}

// Validate 必填项为空时签名会用空密钥计算，返回缺失的配置项
func (c VNPayConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.TmnCode) == "" {
		missing = append(missing, "vnpay.tmn_code")
	}
	if strings.TrimSpace(c.HashSecret) == "" {
		missing = append(missing, "vnpay.hash_secret")
	}
	if strings.TrimSpace(c.PayURL) == "" {
		missing = append(missing, "vnpay.pay_url")
	}
	if strings.TrimSpace(c.ReturnURL) == "" {
		missing = append(missing, "vnpay.return_url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("vnpay config missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

type PremiumConfig struct {
	PlanCacheTTL  time.Duration `mapstructure:"plan_cache_ttl"`
	PendingTTL    time.Duration `mapstructure:"pending_ttl"`
	SweepGrace    time.Duration `mapstructure:"sweep_grace"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	Plans         []PlanSeed    `mapstructure:"plans"`
}

// PlanSeed 套餐种子数据（cmd/seed 使用）
type PlanSeed struct {
	Key            string `mapstructure:"key"`
	Name           string `mapstructure:"name"`
	Price          int64  `mapstructure:"price"`
	Currency       string `mapstructure:"currency"`
	DurationMonths int    `mapstructure:"duration_months"`
	MaxMembers     int    `mapstructure:"max_members"`
	IsActive       *bool  `mapstructure:"is_active"`
	Description    string `mapstructure:"description"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
}

func Load(configPath string) (*Config, error) {
	// .env 仅用于本地开发，不存在时忽略
	_ = godotenv.Load()

	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setDefaults(v)

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("jwt.expire_hours", 168)
	v.SetDefault("vnpay.locale", "vn")
	v.SetDefault("vnpay.result_url", "/profile")
	v.SetDefault("premium.plan_cache_ttl", 5*time.Minute)
	v.SetDefault("premium.pending_ttl", 15*time.Minute)
	v.SetDefault("premium.sweep_grace", time.Hour)
	v.SetDefault("premium.sweep_interval", 10*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
