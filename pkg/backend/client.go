// Package backend 提供了访问远程测试生成服务的 HTTP 客户端。
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"testops-assistant-go/internal/config"
	"testops-assistant-go/internal/generation"
)

// Client 定义了生成后端客户端的接口。
type Client interface {
	// Generate 执行一次生成调用并返回原始响应体。
	// 非成功状态（含传输层失败）以 *generation.BackendError 返回。
	Generate(ctx context.Context, req *generation.Request) ([]byte, error)
}

type httpClient struct {
	cfg    config.BackendConfig
	client *http.Client
}

// NewClient 根据配置创建一个新的生成后端客户端。
// 不设置显式超时：以底层传输的超时为准。
func NewClient(cfg config.BackendConfig) Client {
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

func (c *httpClient) Generate(ctx context.Context, genReq *generation.Request) ([]byte, error) {
	reqBytes, err := json.Marshal(genReq.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generation request: %w", err)
	}

	target := c.cfg.BaseURL + genReq.Path
	if len(genReq.Query) > 0 {
		target += "?" + genReq.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// 传输层失败：状态码置 0，错误文本作为响应体
		return nil, &generation.BackendError{Status: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &generation.BackendError{Status: resp.StatusCode, Body: err.Error()}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &generation.BackendError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
