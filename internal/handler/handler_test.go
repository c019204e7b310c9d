package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GoPolymarket/calllog/internal/config"
	"github.com/GoPolymarket/calllog/internal/middleware"
	"github.com/GoPolymarket/calllog/internal/model"
	"github.com/GoPolymarket/calllog/internal/pkg/logger"
	"github.com/GoPolymarket/calllog/internal/pkg/traceid"
	"github.com/GoPolymarket/calllog/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type server struct {
	router     *gin.Engine
	dispatcher *service.Dispatcher
	out        *bytes.Buffer
}

func newServer(t *testing.T, cfg *config.Config) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var out bytes.Buffer
	named := logger.New(logger.Spec{Level: "debug", Format: "json"}, &out)
	reg := logger.NewRegistry(named, named)
	require.NoError(t, reg.Register(model.DefaultLoggerName, named))

	d := service.NewDispatcher(service.DispatcherConfig{CoreWorkers: 1, MaxWorkers: 2, QueueCapacity: 16}, named)
	in := service.NewInterceptor(d, service.NewRecorder(reg, nil, service.NewEmitter("[calllog] ", "")))

	r := gin.New()
	r.Use(middleware.TraceID(), middleware.ErrorHandler())
	Routes(r, cfg, in, NewTokenHandler(service.NewTokenStore(0)), NewFileHandler())
	return &server{router: r, dispatcher: d, out: &out}
}

func (s *server) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type logged struct {
	level string
	rec   map[string]any
}

func (s *server) records(t *testing.T) []logged {
	t.Helper()
	require.NoError(t, s.dispatcher.Shutdown(context.Background()))
	var out []logged
	for _, raw := range strings.Split(strings.TrimSpace(s.out.String()), "\n") {
		var line map[string]any
		if json.Unmarshal([]byte(raw), &line) != nil {
			continue
		}
		msg, _ := line["msg"].(string)
		if !strings.HasPrefix(msg, "[calllog] ") {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(msg, "[calllog] ")), &rec))
		level, _ := line["level"].(string)
		out = append(out, logged{level: level, rec: rec})
	}
	return out
}

func defaultConfig() *config.Config {
	return &config.Config{Log: config.LogConfig{Level: "debug"}}
}

func TestCreateTokenLogsRedactedRecord(t *testing.T) {
	s := newServer(t, defaultConfig())

	body := `{"owner":"alice","scope":"read","secret":"` + strings.Repeat("Q", 4096) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/tokens", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(traceid.Key, "trace-create")
	w := s.do(req)

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
	var tok model.Token
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))
	assert.Equal(t, "alice", tok.Owner)
	assert.Equal(t, "trace-create", w.Header().Get(traceid.Key))

	recs := s.records(t)
	require.Len(t, recs, 1)
	assert.Equal(t, "INFO", recs[0].level)
	rec := recs[0].rec
	assert.Equal(t, "create token", rec["describe"])
	assert.Equal(t, "handler.TokenHandler.Create", rec["classMethod"])
	assert.Equal(t, "trace-create", rec["correlationId"])
	request := rec["requestParam"].(map[string]any)["request"].(map[string]any)
	assert.Equal(t, "very long (more than 1024)", request["secret"])
	assert.Equal(t, tok.ID, rec["responseResult"].(map[string]any)["id"])
}

func TestGetUnknownTokenIsNotFound(t *testing.T) {
	s := newServer(t, defaultConfig())
	w := s.do(httptest.NewRequest(http.MethodGet, "/v1/tokens/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	recs := s.records(t)
	require.Len(t, recs, 1)
	assert.Equal(t, "DEBUG", recs[0].level)
	assert.Equal(t, map[string]any{"id": "nope"}, recs[0].rec["requestParam"])
	assert.Equal(t, "token not found", recs[0].rec["responseResult"])
}

func TestUploadSummarisesFile(t *testing.T) {
	s := newServer(t, defaultConfig())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "rows.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("one\ntwo\nthree"))
	require.NoError(t, mw.WriteField("note", "nightly"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := s.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}

	var summary model.FileSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "rows.txt", summary.Filename)
	assert.Equal(t, int64(13), summary.Bytes)
	assert.Equal(t, 3, summary.Lines)
	assert.Len(t, summary.SHA256, 64)

	recs := s.records(t)
	require.Len(t, recs, 1)
	file := recs[0].rec["requestParam"].(map[string]any)["file"].(map[string]any)
	assert.Equal(t, "rows.txt", file["originalFilename"])
	assert.Equal(t, float64(13), file["size"])
	// pretty 输出使用固定的时间格式
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}$`, recs[0].rec["requestTime"])
}

func TestFailRendersAppError(t *testing.T) {
	s := newServer(t, defaultConfig())
	w := s.do(httptest.NewRequest(http.MethodGet, "/v1/fail", nil))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}

	recs := s.records(t)
	require.Len(t, recs, 1)
	assert.Equal(t, "upstream ledger unavailable", recs[0].rec["responseResult"])
	assert.Equal(t, "handler.Fail", recs[0].rec["classMethod"])
}

func TestTraceIsNotObserved(t *testing.T) {
	s := newServer(t, defaultConfig())
	req := httptest.NewRequest(http.MethodGet, "/v1/trace", nil)
	req.Header.Set(traceid.Key, "look-at-me")
	w := s.do(req)

	assert.JSONEq(t, `{"trace_id":"look-at-me"}`, w.Body.String())
	assert.Empty(t, s.records(t))
}

func TestConfiguredPolicyOverridesDefault(t *testing.T) {
	cfg := defaultConfig()
	cfg.Policies = map[string]map[string]any{
		"fail": {"level": "info"},
	}
	s := newServer(t, cfg)
	s.do(httptest.NewRequest(http.MethodGet, "/v1/fail", nil))

	recs := s.records(t)
	require.Len(t, recs, 1)
	assert.Equal(t, "INFO", recs[0].level)
	assert.Equal(t, "always fails", recs[0].rec["describe"])
}
