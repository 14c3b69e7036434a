package oss

import (
	"bytes"
	"fmt"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/qs3c/phim_premium_server/config"
)

const settlementPrefix = "payments"

type Client struct {
	client     *oss.Client
	bucket     *oss.Bucket
	bucketName string
}

func NewClient(cfg *config.OSSConfig) (*Client, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	return &Client{
		client:     client,
		bucket:     bucket,
		bucketName: cfg.BucketName,
	}, nil
}

// SettlementObjectKey 结算归档路径：payments/<yyyy>/<mm>/<dd>/<transactionId>.json（UTC 日期）
func SettlementObjectKey(transactionID string, settledAt time.Time) string {
	return fmt.Sprintf("%s/%s/%s.json", settlementPrefix, settledAt.UTC().Format("2006/01/02"), transactionID)
}

// ArchiveSettlement 上传结算时的网关回传参数，返回 object key
func (c *Client) ArchiveSettlement(transactionID string, settledAt time.Time, data []byte) (string, error) {
	objectKey := SettlementObjectKey(transactionID, settledAt)

	err := c.bucket.PutObject(objectKey, bytes.NewReader(data),
		oss.ContentType("application/json"),
		oss.ObjectACL(oss.ACLPrivate),
	)
	if err != nil {
		return "", fmt.Errorf("failed to archive settlement: %w", err)
	}

	return objectKey, nil
}
