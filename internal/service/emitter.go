package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/GoPolymarket/calllog/internal/model"
	"github.com/GoPolymarket/calllog/internal/pkg/metrics"
	jsoniter "github.com/json-iterator/go"
)

// PrettyTimeLayout is used for timestamps in pretty-printed records.
const PrettyTimeLayout = "2006-01-02 15:04:05.000"

var recordAPI = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
}.Froze()

// prettyRecord fixes field order and spells out every field, null included.
type prettyRecord struct {
	Describe         string `json:"describe"`
	RequestParam     any    `json:"requestParam"`
	ResponseResult   any    `json:"responseResult"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
	RequestTime      string `json:"requestTime"`
	FinishTime       string `json:"finishTime"`
	URI              string `json:"uri"`
	HTTPMethod       string `json:"httpMethod"`
	ClassMethod      string `json:"classMethod"`
	IP               string `json:"ip"`
	CorrelationID    string `json:"correlationId"`
}

// EncodeRecord renders rec either as a single compact line or as indented
// text.
func EncodeRecord(rec *model.LogRecord, pretty bool) ([]byte, error) {
	if !pretty {
		return recordAPI.Marshal(rec)
	}
	return recordAPI.MarshalIndent(prettyRecord{
		Describe:         rec.Describe,
		RequestParam:     rec.RequestParam,
		ResponseResult:   rec.ResponseResult,
		ProcessingTimeMs: rec.ProcessingTimeMs,
		RequestTime:      formatTime(rec.RequestTime),
		FinishTime:       formatTime(rec.FinishTime),
		URI:              rec.URI,
		HTTPMethod:       rec.HTTPMethod,
		ClassMethod:      rec.ClassMethod,
		IP:               rec.IP,
		CorrelationID:    rec.CorrelationID,
	}, "", "  ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(PrettyTimeLayout)
}

// SlogLevel maps a policy level onto slog. Anything but INFO is debug.
func SlogLevel(level model.Level) slog.Level {
	if level == model.LevelInfo {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// Emitter writes finished records to a logger.
type Emitter struct {
	prefix string
	suffix string
	encode func(rec *model.LogRecord, pretty bool) ([]byte, error)
}

// NewEmitter returns an emitter that surrounds every line with prefix and
// suffix.
func NewEmitter(prefix, suffix string) *Emitter {
	return &Emitter{prefix: prefix, suffix: suffix, encode: EncodeRecord}
}

// Emit writes rec to log at level. Nothing is encoded when log is not enabled
// for level. name only labels metrics.
func (e *Emitter) Emit(ctx context.Context, rec *model.LogRecord, level model.Level, name string, log *slog.Logger, pretty bool) error {
	lvl := SlogLevel(level)
	if log == nil || !log.Enabled(ctx, lvl) {
		return nil
	}
	body, err := e.encode(rec, pretty)
	if err != nil {
		return err
	}
	log.Log(ctx, lvl, e.prefix+string(body)+e.suffix)
	metrics.RecordsEmitted.WithLabelValues(name, string(model.ParseLevel(string(level)))).Inc()
	return nil
}
