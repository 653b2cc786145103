package net

import (
	"net/http"
	"strings"
)

// CollageUserAgent 调用拼图服务时固定的客户端标识
const CollageUserAgent = "FieldShortcut/1.0.0"

// BuildCollageRequest 拼图服务请求构建器
// 职责：统一封装鉴权头 (Authorization) 和标准头 (Content-Type, User-Agent)
// accessToken 由调用方传入，这里只做去空白处理
func BuildCollageRequest(url string, body []byte, accessToken string) *FetchRequest {
	return &FetchRequest{
		Method: http.MethodPost,
		URL:    url,
		Header: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + strings.TrimSpace(accessToken),
			"User-Agent":    CollageUserAgent,
		},
		Body: body,
	}
}
