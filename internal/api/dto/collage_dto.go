package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ==================== 宿主返回码 ====================

// FieldCode 字段捷径返回码，与宿主平台约定一致
type FieldCode int

const (
	FieldCodeSuccess     FieldCode = 0
	FieldCodeConfigError FieldCode = 1
	FieldCodeError       FieldCode = -1
)

// ContentTypeAttachmentURL 附件内容为远程 URL
const ContentTypeAttachmentURL = "attachment/url"

// ==================== 表单输入 ====================

// Attachment 宿主平台附件，只消费 tmp_url
type Attachment struct {
	Name      string `json:"name,omitempty"`
	Size      int64  `json:"size,omitempty"`
	Type      string `json:"type,omitempty"`
	Token     string `json:"token,omitempty"`
	TimeStamp int64  `json:"timeStamp,omitempty"`
	TmpURL    string `json:"tmp_url"`
}

// SelectOption 单选组件的选中项
type SelectOption struct {
	Label string `json:"label,omitempty"`
	Value string `json:"value"`
}

// TextSegment 富文本输入的片段
type TextSegment struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextValue 文本输入框的值
// 宿主可能传入纯字符串、null 或片段数组，统一在解码时归一为字符串
type TextValue string

func (v *TextValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
		return nil
	case '[':
		var segments []TextSegment
		if err := json.Unmarshal(data, &segments); err != nil {
			return fmt.Errorf("文本片段解析失败: %w", err)
		}
		var sb strings.Builder
		for _, seg := range segments {
			sb.WriteString(seg.Text)
		}
		*v = TextValue(sb.String())
		return nil
	}

	return fmt.Errorf("不支持的文本值: %s", string(data))
}

// Trimmed 去除首尾空白后的文本
func (v TextValue) Trimmed() string {
	return strings.TrimSpace(string(v))
}

// FormInput 字段捷径的表单参数
type FormInput struct {
	// 多选附件组件的值是嵌套数组，仅第一组参与生成
	Attachments [][]Attachment `json:"attachments"`
	AspectRatio *SelectOption  `json:"aspectRatio,omitempty"`
	Title       TextValue      `json:"title,omitempty"`
	AccessToken TextValue      `json:"accessToken"`
}

// ExecuteRequest 宿主调用执行接口的请求体
type ExecuteRequest struct {
	FormItemParams FormInput `json:"formItemParams"`
}

// ==================== 拼图接口 ====================

// CollageRequest 拼图接口请求体
type CollageRequest struct {
	ImageURLs   []string `json:"imageUrls"`
	AspectRatio string   `json:"aspectRatio"`
	Title       string   `json:"title,omitempty"`
}

// CollageResult 单张拼图结果
type CollageResult struct {
	TemplateName string `json:"templateName,omitempty"`
	DownloadURL  string `json:"downloadURL"`
}

// CollageResponse 拼图接口响应
// Code 缺失视为失败
type CollageResponse struct {
	Code    *int   `json:"code"`
	Message string `json:"message,omitempty"`
	Data    *struct {
		Results []CollageResult `json:"results"`
	} `json:"data,omitempty"`
}

// Succeeded 业务码是否为 0
func (r *CollageResponse) Succeeded() bool {
	return r.Code != nil && *r.Code == 0
}

// CollageResults 返回结果列表，data 缺失时为空
func (r *CollageResponse) CollageResults() []CollageResult {
	if r.Data == nil {
		return nil
	}
	return r.Data.Results
}

// ==================== 执行结果 ====================

// OutputAttachment 返回给宿主的附件描述
type OutputAttachment struct {
	Name        string `json:"name"`
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
}

// ExecutionResult 字段执行结果信封
type ExecutionResult struct {
	Code FieldCode          `json:"code"`
	Data []OutputAttachment `json:"data,omitempty"`
	Msg  string             `json:"msg,omitempty"`
}

// OK 是否执行成功
func (r *ExecutionResult) OK() bool {
	return r.Code == FieldCodeSuccess
}
