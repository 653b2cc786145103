package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"collage_field_v1/internal/api/dto"
	"collage_field_v1/internal/model"
	"collage_field_v1/pkg/net"
	"collage_field_v1/pkg/utils"
)

// ==================== 常量 ====================

// ErrorMarker 标记错误来自字段自身逻辑，区别于宿主平台错误
const ErrorMarker = "===field shortcut error: "

const (
	MsgNoAttachments     = "select at least one image attachment."
	MsgNoAccessToken     = "enter an access token."
	MsgGenerationFailed  = "collage generation failed"
	MsgNoCollage         = "no collage was generated."
	MsgUnknownError      = "unknown error"
	msgRequestFailedTmpl = "collage API request failed %d"
)

const (
	// MaxCollageResults 最多返回的拼图数量，超出部分按位置丢弃
	MaxCollageResults = 5
	// DefaultTemplateName 结果缺少模板名时使用
	DefaultTemplateName = "collage"
)

var errNilFetcher = errors.New("collage fetcher not configured")

// ==================== 依赖 ====================

// ExecutionRecorder 执行日志落库能力
type ExecutionRecorder interface {
	Create(ctx context.Context, log *model.ExecutionLog) error
}

// ==================== 服务 ====================

// CollageService 拼图字段执行服务
// 无状态，可被多个请求并发调用
type CollageService struct {
	fetcher  net.Fetcher
	recorder ExecutionRecorder
	logger   *zap.Logger
	endpoint string
}

// NewCollageService 创建拼图服务
// recorder 可为空，为空时不记录执行日志
func NewCollageService(fetcher net.Fetcher, recorder ExecutionRecorder, logger *zap.Logger) *CollageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CollageService{
		fetcher:  fetcher,
		recorder: recorder,
		logger:   logger.Named("collage"),
		endpoint: model.CollageAPIURL,
	}
}

// Execute 执行一次拼图字段计算
// 所有失败都转换为结果信封返回，不会向调用方抛出 error 或 panic
func (s *CollageService) Execute(ctx context.Context, in *dto.FormInput) (result *dto.ExecutionResult) {
	start := time.Now()
	entry := &model.ExecutionLog{RequestID: utils.GetRequestID(ctx)}
	log := s.logger.With(zap.String("request_id", entry.RequestID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("执行过程中发生异常", zap.Any("panic", r))
			result = Failure(dto.FieldCodeError, panicMessage(r))
		}
		s.record(ctx, log, entry, result, start)
	}()

	return s.execute(ctx, in, entry, log)
}

func (s *CollageService) execute(ctx context.Context, in *dto.FormInput, entry *model.ExecutionLog, log *zap.Logger) *dto.ExecutionResult {
	if in == nil {
		return Failure(dto.FieldCodeConfigError, MsgNoAttachments)
	}

	accessToken := in.AccessToken.Trimmed()
	firstGroup := 0
	if len(in.Attachments) > 0 {
		firstGroup = len(in.Attachments[0])
	}
	log.Info("接收到的参数",
		zap.Int("attachment_groups", len(in.Attachments)),
		zap.Int("first_group_size", firstGroup),
		zap.Any("aspect_ratio", in.AspectRatio),
		zap.String("title", string(in.Title)),
		zap.String("access_token", utils.MaskSecret(accessToken)),
	)

	// 1. 参数校验
	if firstGroup == 0 {
		return Failure(dto.FieldCodeConfigError, MsgNoAttachments)
	}
	if accessToken == "" {
		return Failure(dto.FieldCodeConfigError, MsgNoAccessToken)
	}

	// 2. 构建请求
	req := NewCollageRequest(in)
	log.Info("提取的图片URL", zap.Int("count", len(req.ImageURLs)), zap.Strings("urls", req.ImageURLs))

	body, err := json.Marshal(req)
	if err != nil {
		return Failure(dto.FieldCodeError, errorMessage(err))
	}

	entry.ImageCount = len(req.ImageURLs)
	entry.AspectRatio = req.AspectRatio
	entry.HasTitle = req.Title != ""
	entry.RequestBody = datatypes.JSON(body)

	log.Info("发送拼图请求", zap.ByteString("body", body))

	// 3. 调用拼图接口
	if s.fetcher == nil {
		return Failure(dto.FieldCodeError, errorMessage(errNilFetcher))
	}
	resp, err := s.fetcher.Fetch(ctx, net.BuildCollageRequest(s.endpoint, body, accessToken))
	if err != nil {
		log.Error("拼图接口调用失败", zap.Error(err))
		return Failure(dto.FieldCodeError, errorMessage(err))
	}
	entry.UpstreamStatus = resp.StatusCode

	if !resp.OK() {
		log.Error("拼图接口请求失败", zap.Int("status", resp.StatusCode), zap.String("status_text", resp.Status))
		return Failure(dto.FieldCodeError, fmt.Sprintf(msgRequestFailedTmpl, resp.StatusCode))
	}

	// 4. 解析响应
	var parsed dto.CollageResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		log.Error("拼图接口响应解析失败", zap.Error(err), zap.ByteString("body", resp.Body))
		return Failure(dto.FieldCodeError, errorMessage(err))
	}
	log.Info("拼图接口返回结果", zap.ByteString("body", resp.Body))

	if !parsed.Succeeded() {
		msg := parsed.Message
		if msg == "" {
			msg = MsgGenerationFailed
		}
		return Failure(dto.FieldCodeError, msg)
	}

	results := parsed.CollageResults()
	log.Info("拼图接口返回的拼图数量", zap.Int("count", len(results)))
	if len(results) == 0 {
		log.Warn("拼图接口未返回任何拼图结果")
		return Failure(dto.FieldCodeError, MsgNoCollage)
	}

	// 5. 构建附件
	attachments := MapCollageResults(results)
	log.Info("拼图字段执行成功", zap.Int("attachments", len(attachments)))

	return &dto.ExecutionResult{
		Code: dto.FieldCodeSuccess,
		Data: attachments,
	}
}

// ==================== 请求 / 结果映射 ====================

// NewCollageRequest 根据表单构建拼图接口请求体
// 只取第一组附件
func NewCollageRequest(in *dto.FormInput) *dto.CollageRequest {
	req := &dto.CollageRequest{
		ImageURLs:   []string{},
		AspectRatio: model.DefaultAspectRatio,
		Title:       in.Title.Trimmed(),
	}

	if len(in.Attachments) > 0 {
		group := in.Attachments[0]
		req.ImageURLs = make([]string, 0, len(group))
		for _, att := range group {
			req.ImageURLs = append(req.ImageURLs, att.TmpURL)
		}
	}

	if in.AspectRatio != nil && in.AspectRatio.Value != "" {
		req.AspectRatio = in.AspectRatio.Value
	}

	return req
}

// MapCollageResults 将拼图结果映射为附件，最多保留 MaxCollageResults 个
func MapCollageResults(results []dto.CollageResult) []dto.OutputAttachment {
	if len(results) > MaxCollageResults {
		results = results[:MaxCollageResults]
	}

	attachments := make([]dto.OutputAttachment, 0, len(results))
	for i, item := range results {
		name := item.TemplateName
		if name == "" {
			name = DefaultTemplateName
		}
		attachments = append(attachments, dto.OutputAttachment{
			Name:        fmt.Sprintf("%s_%d.jpg", name, i+1),
			Content:     item.DownloadURL,
			ContentType: dto.ContentTypeAttachmentURL,
		})
	}
	return attachments
}

// ==================== 执行日志 ====================

func (s *CollageService) record(ctx context.Context, log *zap.Logger, entry *model.ExecutionLog, result *dto.ExecutionResult, start time.Time) {
	if s.recorder == nil || result == nil {
		return
	}

	entry.ResultCode = int(result.Code)
	entry.ResultCount = len(result.Data)
	entry.DurationMs = time.Since(start).Milliseconds()

	switch result.Code {
	case dto.FieldCodeSuccess:
		entry.Status = model.ExecutionStatusSuccess
	case dto.FieldCodeConfigError:
		entry.Status = model.ExecutionStatusConfigError
		entry.ErrorMsg = result.Msg
	default:
		entry.Status = model.ExecutionStatusFailed
		entry.ErrorMsg = truncate(result.Msg, 1024)
	}

	// 请求被取消时仍然落库
	if err := s.recorder.Create(context.WithoutCancel(ctx), entry); err != nil {
		log.Warn("执行日志写入失败", zap.Error(err))
	}
}

// ==================== 工具函数 ====================

// Failure 构建带错误标记的失败结果
func Failure(code dto.FieldCode, msg string) *dto.ExecutionResult {
	return &dto.ExecutionResult{
		Code: code,
		Msg:  ErrorMarker + msg,
	}
}

func errorMessage(err error) string {
	if err == nil || err.Error() == "" {
		return MsgUnknownError
	}
	return err.Error()
}

func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return errorMessage(v)
	case string:
		if v != "" {
			return v
		}
	}
	return MsgUnknownError
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// IsConfigError 结果是否为配置类错误
func IsConfigError(result *dto.ExecutionResult) bool {
	return result != nil && result.Code == dto.FieldCodeConfigError
}
