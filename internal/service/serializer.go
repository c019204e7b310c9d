package service

import (
	"context"
	"log/slog"
	"mime/multipart"
	"regexp"

	"github.com/GoPolymarket/calllog/internal/model"
	"github.com/GoPolymarket/calllog/internal/pkg/logger"
	jsoniter "github.com/json-iterator/go"
)

// LongTextReplacement replaces any quoted literal made of 1024 or more word,
// '+', '-' or '=' characters.
const LongTextReplacement = `"very long (more than 1024)"`

// 以引号开始, 只包含字母数字或 +-= 的一串字, 长度至少 1024, 最小匹配, 以引号结束.
// RE2 caps a counted repetition at 1000, hence the split.
var longTextPattern = regexp.MustCompile(`"[\w+\-=]{1000}[\w+\-=]{24,}?"`)

// UploadedFile is implemented by upload parameters. Their content is never
// serialized; only this metadata is.
type UploadedFile interface {
	Size() int64
	OriginalFilename() string
	ContentType() string
	Name() string
}

// Serializer converts arbitrary values into plain structured data suitable
// for embedding in a LogRecord.
type Serializer struct {
	api jsoniter.API
}

// loggableAPI matches encoding/json except that numbers parse back as
// json.Number, so int64 ids survive the round trip unchanged.
var loggableAPI = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

func NewSerializer() *Serializer {
	return &Serializer{api: loggableAPI}
}

// ToLoggable round-trips v through JSON, optionally replacing long opaque
// string literals on the way. Any failure yields nil and a trace diagnostic on
// diag; it never panics.
func (s *Serializer) ToLoggable(ctx context.Context, diag *slog.Logger, v any, redact bool) (out any) {
	defer func() {
		if r := recover(); r != nil {
			logger.Trace(ctx, diag, "param conversion failed", "panic", r)
			out = nil
		}
	}()

	raw, err := s.api.Marshal(v)
	if err != nil {
		logger.Trace(ctx, diag, "param conversion failed", "error", err)
		return nil
	}
	if redact {
		raw = RedactLongText(raw)
	}
	var parsed any
	if err := s.api.Unmarshal(raw, &parsed); err != nil {
		logger.Trace(ctx, diag, "param conversion failed", "error", err)
		return nil
	}
	return parsed
}

// RedactLongText replaces each long quoted literal in raw independently.
func RedactLongText(raw []byte) []byte {
	return longTextPattern.ReplaceAllLiteral(raw, []byte(LongTextReplacement))
}

// PairArgs zips declared parameter names with argument values. When either
// list is empty or their lengths differ nothing is paired and the map is
// empty. Upload parameters are replaced by their descriptor.
func PairArgs(names []string, args []any) map[string]any {
	params := make(map[string]any, len(args))
	if len(names) == 0 || len(args) == 0 || len(names) != len(args) {
		return params
	}
	for i, arg := range args {
		params[names[i]] = describeUpload(names[i], arg)
	}
	return params
}

func describeUpload(name string, arg any) any {
	switch v := arg.(type) {
	case UploadedFile:
		return model.UploadDescriptor{
			Size:             v.Size(),
			OriginalFilename: v.OriginalFilename(),
			ContentType:      v.ContentType(),
			Name:             v.Name(),
		}
	case *multipart.FileHeader:
		if v == nil {
			return nil
		}
		return model.UploadDescriptor{
			Size:             v.Size,
			OriginalFilename: v.Filename,
			ContentType:      v.Header.Get("Content-Type"),
			Name:             name,
		}
	default:
		return arg
	}
}
