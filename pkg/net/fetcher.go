package net

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// FetchRequest 一次出站请求
type FetchRequest struct {
	Method string
	URL    string
	Header map[string]string
	Body   []byte
}

// FetchResponse 出站请求的原始响应
type FetchResponse struct {
	StatusCode int
	Status     string
	Body       []byte
}

// OK 状态码是否为 2xx
func (r *FetchResponse) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// Fetcher 出站 HTTP 调用能力
// 业务层只依赖该接口，测试时可注入假实现
type Fetcher interface {
	// Fetch 发送一次请求，不做重试
	// 非 2xx 不视为 error，由调用方根据 StatusCode 判断
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResponse, error)
}

// restyFetcher 基于 Resty 的 Fetcher 实现
type restyFetcher struct {
	client *resty.Client
}

var _ Fetcher = (*restyFetcher)(nil)

// NewFetcher 创建 Fetcher，client 为空时使用默认客户端
func NewFetcher(client *resty.Client) Fetcher {
	if client == nil {
		client = NewClient(false)
	}
	return &restyFetcher{client: client}
}

// NewClient 创建 Resty 客户端
// 不设置超时和重试，单次请求由 ctx 和底层传输决定何时结束
func NewClient(debug bool) *resty.Client {
	return resty.New().
		SetDebug(debug).
		SetRetryCount(0)
}

func (f *restyFetcher) Fetch(ctx context.Context, req *FetchRequest) (*FetchResponse, error) {
	r := f.client.R().
		SetContext(ctx).
		SetHeaders(req.Header)

	if req.Body != nil {
		r.SetBody(req.Body)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	resp, err := r.Execute(method, req.URL)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return &FetchResponse{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Body:       resp.Body(),
	}, nil
}
