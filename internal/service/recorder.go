package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/GoPolymarket/calllog/internal/model"
	"github.com/GoPolymarket/calllog/internal/pkg/logger"
)

// LoggerResolver finds the logger a policy names.
type LoggerResolver interface {
	Resolve(name string) *slog.Logger
}

// Snapshot is everything the calling goroutine hands to a logging worker.
type Snapshot struct {
	Policy  *model.Policy
	Call    model.CallContext
	Finish  time.Time
	Result  any // return value, or the error/panic message on failure
	TraceID string
}

// Recorder turns snapshots into log records and writes them.
type Recorder struct {
	loggers    LoggerResolver
	serializer *Serializer
	emitter    *Emitter
}

func NewRecorder(loggers LoggerResolver, serializer *Serializer, emitter *Emitter) *Recorder {
	if serializer == nil {
		serializer = NewSerializer()
	}
	if emitter == nil {
		emitter = NewEmitter("", "")
	}
	return &Recorder{loggers: loggers, serializer: serializer, emitter: emitter}
}

// Record builds and emits the record for snap. It is meant to run on a
// dispatcher worker and never panics.
func (r *Recorder) Record(ctx context.Context, snap *Snapshot) {
	if snap == nil || snap.Policy == nil {
		return
	}
	log := r.resolve(snap.Policy.Logger)
	defer func() {
		if p := recover(); p != nil {
			logger.Trace(ctx, log, "record log failed", "panic", p)
		}
	}()

	// 级别未开启时不做任何序列化
	if !log.Enabled(ctx, SlogLevel(snap.Policy.Level)) {
		return
	}
	rec := r.Build(ctx, log, snap)
	if err := r.emitter.Emit(ctx, rec, snap.Policy.Level, snap.Policy.Logger, log, snap.Policy.Pretty); err != nil {
		logger.Trace(ctx, log, "record log failed", "error", err)
	}
}

// Build assembles the LogRecord for snap. Serialization failures leave the
// affected field nil.
func (r *Recorder) Build(ctx context.Context, diag *slog.Logger, snap *Snapshot) *model.LogRecord {
	redact := snap.Policy.RedactLongText
	params := PairArgs(snap.Call.ParamNames, snap.Call.Args)
	return &model.LogRecord{
		Describe:         snap.Policy.Description,
		RequestParam:     r.serializer.ToLoggable(ctx, diag, params, redact),
		ResponseResult:   r.serializer.ToLoggable(ctx, diag, snap.Result, redact),
		ProcessingTimeMs: snap.Finish.Sub(snap.Call.Start).Milliseconds(),
		RequestTime:      snap.Call.Start,
		FinishTime:       snap.Finish,
		URI:              snap.Call.URI,
		HTTPMethod:       snap.Call.HTTPMethod,
		ClassMethod:      snap.Call.ClassMethod(),
		IP:               snap.Call.IP,
		CorrelationID:    snap.TraceID,
	}
}

func (r *Recorder) resolve(name string) *slog.Logger {
	if r.loggers == nil {
		return logger.Resolve(name)
	}
	if l := r.loggers.Resolve(name); l != nil {
		return l
	}
	return logger.Get()
}
