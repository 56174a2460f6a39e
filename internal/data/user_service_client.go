package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gkr185/vip-pay-service/internal/biz"
	"github.com/gkr185/vip-pay-service/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

// VIP标志值,用户服务约定 1 表示有效VIP
const vipTypeActive = 1

// userServiceClient 用户服务HTTP客户端
// 用户服务是VIP标志的唯一属主,本服务通过 PUT/DELETE /api/users/{id}/vip 写入
type userServiceClient struct {
	baseURL string
	client  *http.Client
	log     *log.Helper
}

// NewUserServiceClient 创建用户服务客户端
func NewUserServiceClient(c *conf.Bootstrap, logger log.Logger) biz.UserClient {
	addr := ""
	timeout := 3 * time.Second
	if c != nil && c.Client != nil {
		if c.Client.UserService != nil {
			addr = c.Client.UserService.Addr
		}
		timeout = c.Client.UserServiceTimeout()
	}
	return &userServiceClient{
		baseURL: addr,
		client:  &http.Client{Timeout: timeout},
		log:     log.NewHelper(logger),
	}
}

// UpdateVipStatus 设置用户VIP状态
func (c *userServiceClient) UpdateVipStatus(ctx context.Context, userID uint64, vipExpireTime time.Time) error {
	body, err := json.Marshal(map[string]interface{}{
		"vipType":       vipTypeActive,
		"vipExpireTime": vipExpireTime.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/users/%d/vip", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// CancelVipStatus 取消用户VIP状态
func (c *userServiceClient) CancelVipStatus(ctx context.Context, userID uint64) error {
	url := fmt.Sprintf("%s/api/users/%d/vip", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}

	return c.do(req)
}

func (c *userServiceClient) do(req *http.Request) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("user service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// 响应体只用于错误信息,读一小段即可
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("user service returned %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}
