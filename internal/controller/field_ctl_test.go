package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"collage_field_v1/internal/api/dto"
	"collage_field_v1/internal/model"
	"collage_field_v1/internal/repository"
	"collage_field_v1/internal/service"
	"collage_field_v1/pkg/net"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== 测试替身 ====================

type stubFetcher struct {
	resp  *net.FetchResponse
	calls int
}

func (f *stubFetcher) Fetch(ctx context.Context, req *net.FetchRequest) (*net.FetchResponse, error) {
	f.calls++
	return f.resp, nil
}

type stubExecLogRepo struct {
	repository.ExecutionLogRepository
	stats      *repository.ExecutionStats
	daily      []repository.DailyExecutionStats
	logs       map[string]*model.ExecutionLog
	gotStart   time.Time
	gotEnd     time.Time
	dailyCalls int
}

func (r *stubExecLogRepo) GetStats(ctx context.Context, start, end time.Time) (*repository.ExecutionStats, error) {
	r.gotStart, r.gotEnd = start, end
	return r.stats, nil
}

func (r *stubExecLogRepo) GetDailyStats(ctx context.Context, start, end time.Time) ([]repository.DailyExecutionStats, error) {
	r.dailyCalls++
	r.gotStart, r.gotEnd = start, end
	return r.daily, nil
}

func (r *stubExecLogRepo) GetByRequestID(ctx context.Context, requestID string) (*model.ExecutionLog, error) {
	if log, ok := r.logs[requestID]; ok {
		return log, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ==================== 请求构造辅助 ====================

func setupFieldRouter(fetcher net.Fetcher, repo repository.ExecutionLogRepository) *gin.Engine {
	ctl := NewFieldController(service.NewCollageService(fetcher, nil, nil), repo)

	r := gin.New()
	r.GET("/healthz", ctl.Health)
	r.GET("/api/field/manifest", ctl.Manifest)
	r.POST("/api/field/execute", ctl.Execute)
	r.GET("/api/field/stats", ctl.Stats)
	r.GET("/api/field/executions/:request_id", ctl.GetExecution)
	return r
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	switch b := body.(type) {
	case nil:
		reqBody = bytes.NewBuffer(nil)
	case string:
		reqBody = bytes.NewBufferString(b)
	default:
		jsonBytes, _ := json.Marshal(b)
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ==================== Execute ====================

func TestExecute_Success(t *testing.T) {
	fetcher := &stubFetcher{resp: &net.FetchResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"code":0,"data":{"results":[{"templateName":"grid","downloadURL":"https://cdn/1.jpg"}]}}`),
	}}
	router := setupFieldRouter(fetcher, nil)

	body := `{"formItemParams":{"attachments":[[{"tmp_url":"a"}]],"aspectRatio":{"value":"2:3"},"title":"t","accessToken":"tk"}}`
	w := performRequest(router, http.MethodPost, "/api/field/execute", body)

	require.Equal(t, http.StatusOK, w.Code)

	var result dto.ExecutionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, dto.FieldCodeSuccess, result.Code)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "grid_1.jpg", result.Data[0].Name)
	assert.Equal(t, 1, fetcher.calls)
}

func TestExecute_ConfigErrorEnvelope(t *testing.T) {
	fetcher := &stubFetcher{}
	router := setupFieldRouter(fetcher, nil)

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"缺少附件", `{"formItemParams":{"accessToken":"tk"}}`, "attachment"},
		{"缺少令牌", `{"formItemParams":{"attachments":[[{"tmp_url":"a"}]],"accessToken":"  "}}`, "access token"},
		{"空请求体对象", `{}`, "attachment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodPost, "/api/field/execute", tt.body)
			require.Equal(t, http.StatusOK, w.Code)

			var result dto.ExecutionResult
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			assert.Equal(t, dto.FieldCodeConfigError, result.Code)
			assert.Contains(t, result.Msg, tt.wantMsg)
		})
	}
	assert.Equal(t, 0, fetcher.calls)
}

func TestExecute_InvalidJSON(t *testing.T) {
	fetcher := &stubFetcher{}
	router := setupFieldRouter(fetcher, nil)

	tests := []struct {
		name string
		body string
	}{
		{"请求体被截断", `{"formItemParams":`},
		{"比例为纯字符串", `{"formItemParams":{"attachments":[[{"tmp_url":"a"}]],"aspectRatio":"3:4","accessToken":"tk"}}`},
		{"附件为对象", `{"formItemParams":{"attachments":{"tmp_url":"a"},"accessToken":"tk"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodPost, "/api/field/execute", tt.body)
			require.Equal(t, http.StatusOK, w.Code)

			var result dto.ExecutionResult
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			assert.Equal(t, dto.FieldCodeConfigError, result.Code)
			assert.Contains(t, result.Msg, service.ErrorMarker)
			assert.Contains(t, result.Msg, "invalid form params")
		})
	}
	assert.Equal(t, 0, fetcher.calls)
}

// ==================== Manifest / Health ====================

func TestManifest(t *testing.T) {
	router := setupFieldRouter(&stubFetcher{}, nil)

	w := performRequest(router, http.MethodGet, "/api/field/manifest", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Code int                 `json:"code"`
		Data model.FieldManifest `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, model.AllowedDomains, resp.Data.DomainList)
	assert.Equal(t, model.FieldTypeAttachment, resp.Data.ResultType.Type)
	require.Len(t, resp.Data.FormItems, 4)
	assert.Equal(t, model.FormKeyAttachments, resp.Data.FormItems[0].Key)
	assert.True(t, resp.Data.FormItems[0].Validator.Required)
	assert.Len(t, resp.Data.FormItems[1].Props.Options, 3)
	assert.True(t, resp.Data.FormItems[3].Validator.Required)
}

func TestHealth(t *testing.T) {
	router := setupFieldRouter(&stubFetcher{}, nil)
	w := performRequest(router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// ==================== Stats ====================

func TestStats_Disabled(t *testing.T) {
	router := setupFieldRouter(&stubFetcher{}, nil)
	w := performRequest(router, http.MethodGet, "/api/field/stats", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStats_Query(t *testing.T) {
	repo := &stubExecLogRepo{stats: &repository.ExecutionStats{TotalCalls: 3, SuccessCount: 2}}
	router := setupFieldRouter(&stubFetcher{}, repo)

	w := performRequest(router, http.MethodGet, "/api/field/stats?from=2026-10-01&to=2026-10-02", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_calls":3`)

	assert.Equal(t, "2026-10-01", repo.gotStart.Format(dateLayout))
	assert.Equal(t, "2026-10-02", repo.gotEnd.Format(dateLayout))
	assert.True(t, repo.gotEnd.After(repo.gotStart.Add(24*time.Hour)))
}

func TestStats_InvalidParams(t *testing.T) {
	repo := &stubExecLogRepo{stats: &repository.ExecutionStats{}}
	router := setupFieldRouter(&stubFetcher{}, repo)

	tests := []struct {
		name  string
		query string
	}{
		{"非法开始日期", "?from=abc"},
		{"非法结束日期", "?to=2026-13-01"},
		{"开始晚于结束", "?from=2026-10-05&to=2026-10-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodGet, "/api/field/stats"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestStats_Daily(t *testing.T) {
	repo := &stubExecLogRepo{daily: []repository.DailyExecutionStats{
		{Date: "2026-10-01", TotalCalls: 2, SuccessCount: 1, TotalCollages: 4},
	}}
	router := setupFieldRouter(&stubFetcher{}, repo)

	w := performRequest(router, http.MethodGet, "/api/field/stats?group=day&from=2026-10-01&to=2026-10-03", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Code int                              `json:"code"`
		Data []repository.DailyExecutionStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "2026-10-01", resp.Data[0].Date)
	assert.Equal(t, int64(4), resp.Data[0].TotalCollages)

	assert.Equal(t, 1, repo.dailyCalls)
	assert.Equal(t, "2026-10-01", repo.gotStart.Format(dateLayout))
	assert.Equal(t, "2026-10-03", repo.gotEnd.Format(dateLayout))
}

func TestStats_DailyDefaultRange(t *testing.T) {
	repo := &stubExecLogRepo{}
	router := setupFieldRouter(&stubFetcher{}, repo)

	w := performRequest(router, http.MethodGet, "/api/field/stats?group=day", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, 1, repo.dailyCalls)
	assert.False(t, repo.gotStart.IsZero())
	assert.False(t, repo.gotEnd.IsZero())
	assert.Equal(t, repo.gotEnd.AddDate(0, 0, -defaultDailyRangeDays), repo.gotStart)
}

func TestStats_InvalidGroup(t *testing.T) {
	repo := &stubExecLogRepo{stats: &repository.ExecutionStats{}}
	router := setupFieldRouter(&stubFetcher{}, repo)

	w := performRequest(router, http.MethodGet, "/api/field/stats?group=week", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, repo.dailyCalls)
}

// ==================== GetExecution ====================

func TestGetExecution(t *testing.T) {
	repo := &stubExecLogRepo{logs: map[string]*model.ExecutionLog{
		"req-1": {RequestID: "req-1", ImageCount: 2, ResultCount: 3, Status: model.ExecutionStatusSuccess},
	}}
	router := setupFieldRouter(&stubFetcher{}, repo)

	w := performRequest(router, http.MethodGet, "/api/field/executions/req-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Code int                `json:"code"`
		Data model.ExecutionLog `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "req-1", resp.Data.RequestID)
	assert.Equal(t, 3, resp.Data.ResultCount)
	assert.Equal(t, model.ExecutionStatusSuccess, resp.Data.Status)
}

func TestGetExecution_NotFound(t *testing.T) {
	router := setupFieldRouter(&stubFetcher{}, &stubExecLogRepo{})

	w := performRequest(router, http.MethodGet, "/api/field/executions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetExecution_Disabled(t *testing.T) {
	router := setupFieldRouter(&stubFetcher{}, nil)

	w := performRequest(router, http.MethodGet, "/api/field/executions/req-1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
