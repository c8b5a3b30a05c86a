// Package service 提供外部模型服务的客户端实现。
//
// 爆款分类器以 HTTP/JSON 服务的形式独立部署（TF Serving 风格的
// /v1/models/<name>:predict 协议），这里只做一个薄客户端。
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rushteam/newsrec/core"
)

// HTTPClient 是 core.MLService 的 HTTP/JSON 实现。
type HTTPClient struct {
	// Endpoint 服务端点，形如 "http://localhost:8501"。
	Endpoint string

	// ModelName 默认模型名，请求未指定时使用。
	ModelName string

	// Timeout 单次请求超时。
	Timeout time.Duration

	// Auth 认证信息（可选）。
	Auth *AuthConfig

	httpClient *http.Client
}

// AuthConfig 认证配置。
type AuthConfig struct {
	// Token Bearer Token（优先）
	Token string
	// Username/Password Basic Auth
	Username string
	Password string
}

// Option 配置 HTTPClient。
type Option func(*HTTPClient)

// WithTimeout 设置请求超时。
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		c.Timeout = timeout
	}
}

// WithAuth 设置认证信息。
func WithAuth(auth *AuthConfig) Option {
	return func(c *HTTPClient) {
		c.Auth = auth
	}
}

// NewHTTPClient 创建模型服务客户端。
func NewHTTPClient(endpoint, modelName string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		Endpoint:  endpoint,
		ModelName: modelName,
		Timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient = &http.Client{Timeout: c.Timeout}
	return c
}

var _ core.MLService = (*HTTPClient)(nil)

// Predict 实现 core.MLService。
func (c *HTTPClient) Predict(ctx context.Context, req *core.MLPredictRequest) (*core.MLPredictResponse, error) {
	if len(req.Instances) == 0 {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "instances are required")
	}

	model := req.ModelName
	if model == "" {
		model = c.ModelName
	}
	url := fmt.Sprintf("%s/v1/models/%s:predict", c.Endpoint, model)
	if req.ModelVersion != "" {
		url = fmt.Sprintf("%s/v1/models/%s/versions/%s:predict", c.Endpoint, model, req.ModelVersion)
	}

	body, err := json.Marshal(map[string]any{"instances": req.Instances})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.addAuth(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeUnavailable,
			fmt.Sprintf("predict failed: status=%d body=%s", resp.StatusCode, string(raw)))
	}

	var result struct {
		Predictions []json.RawMessage `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	predictions := make([]float64, 0, len(result.Predictions))
	for _, raw := range result.Predictions {
		v, err := decodePrediction(raw)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, v)
	}
	return &core.MLPredictResponse{Predictions: predictions}, nil
}

// decodePrediction 兼容标量与数组两种返回形态（数组取首个元素）。
func decodePrediction(raw json.RawMessage) (float64, error) {
	var scalar float64
	if err := json.Unmarshal(raw, &scalar); err == nil {
		return scalar, nil
	}
	var arr []float64
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 {
		return arr[0], nil
	}
	return 0, fmt.Errorf("unexpected prediction payload: %s", string(raw))
}

// Health 检查模型服务是否可用。
func (c *HTTPClient) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/v1/models/%s", c.Endpoint, c.ModelName)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.addAuth(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return core.NewDomainError(core.ModuleService, core.ErrorCodeUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.NewDomainError(core.ModuleService, core.ErrorCodeUnavailable,
			fmt.Sprintf("unhealthy: status=%d", resp.StatusCode))
	}
	return nil
}

// Close 实现 core.MLService。
func (c *HTTPClient) Close(_ context.Context) error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) addAuth(req *http.Request) {
	if c.Auth == nil {
		return
	}
	if c.Auth.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Auth.Token)
		return
	}
	if c.Auth.Username != "" {
		req.SetBasicAuth(c.Auth.Username, c.Auth.Password)
	}
}
