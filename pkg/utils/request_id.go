package utils

import (
	"context"

	"github.com/google/uuid"
)

// requestIDKey 请求 ID 的 context key
type requestIDKey struct{}

// NewRequestID 生成新的请求 ID
func NewRequestID() string {
	return uuid.NewString()
}

// WithRequestID 注入请求 ID 到 context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// GetRequestID 从 context 获取请求 ID，没有则返回空串
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
