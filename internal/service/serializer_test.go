package service

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/GoPolymarket/calllog/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quoted(s string) string {
	return `"` + s + `"`
}

func TestRedactLongTextThreshold(t *testing.T) {
	exact := quoted(strings.Repeat("a", 1024))
	assert.Equal(t, LongTextReplacement, string(RedactLongText([]byte(exact))))

	short := quoted(strings.Repeat("a", 1023))
	assert.Equal(t, short, string(RedactLongText([]byte(short))))
}

func TestRedactLongTextCharacterClass(t *testing.T) {
	mixed := quoted(strings.Repeat("Ab9_+-=", 200))
	assert.Equal(t, LongTextReplacement, string(RedactLongText([]byte(mixed))))

	// a single disallowed character splits the run
	broken := quoted(strings.Repeat("a", 600) + "/" + strings.Repeat("a", 600))
	assert.Equal(t, broken, string(RedactLongText([]byte(broken))))
}

func TestRedactLongTextAdjacentLiterals(t *testing.T) {
	first := quoted(strings.Repeat("x", 1500))
	second := quoted(strings.Repeat("y", 1100))
	out := string(RedactLongText([]byte(first + second)))
	assert.Equal(t, LongTextReplacement+LongTextReplacement, out)

	out = string(RedactLongText([]byte(`{"a":` + first + `,"b":"keep","c":` + second + `}`)))
	assert.Equal(t, `{"a":`+LongTextReplacement+`,"b":"keep","c":`+LongTextReplacement+`}`, out)
}

func TestToLoggableRoundTrip(t *testing.T) {
	s := NewSerializer()
	out := s.ToLoggable(context.Background(), nil, map[string]any{"status": "ok", "n": 2}, false)
	assert.Equal(t, map[string]any{"status": "ok", "n": json.Number("2")}, out)

	// scalars survive as scalars
	assert.Equal(t, "boom", s.ToLoggable(context.Background(), nil, "boom", true))
	assert.Nil(t, s.ToLoggable(context.Background(), nil, nil, true))
}

func TestToLoggableRedacts(t *testing.T) {
	s := NewSerializer()
	token := strings.Repeat("t", 2000)
	out := s.ToLoggable(context.Background(), nil, map[string]any{"token": token}, true)
	m, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "very long (more than 1024)", m["token"])

	out = s.ToLoggable(context.Background(), nil, map[string]any{"token": token}, false)
	assert.Equal(t, token, out.(map[string]any)["token"])
}

func TestToLoggableKeepsLargeIntegers(t *testing.T) {
	s := NewSerializer()
	out := s.ToLoggable(context.Background(), nil, map[string]any{"id": int64(9007199254740993), "ratio": 0.25}, false)
	m := out.(map[string]any)
	assert.Equal(t, json.Number("9007199254740993"), m["id"])
	assert.Equal(t, json.Number("0.25"), m["ratio"])

	// 重新编码后数值不变
	raw, err := EncodeRecord(&model.LogRecord{RequestParam: out}, false)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"requestParam":{"id":9007199254740993,"ratio":0.25}`)
}

type exploding struct{}

func (exploding) MarshalJSON() ([]byte, error) {
	panic("marshal exploded")
}

func TestToLoggableFailuresDegradeToNil(t *testing.T) {
	s := NewSerializer()
	assert.Nil(t, s.ToLoggable(context.Background(), nil, make(chan int), false))
	assert.Nil(t, s.ToLoggable(context.Background(), nil, func() {}, false))
	assert.NotPanics(t, func() {
		assert.Nil(t, s.ToLoggable(context.Background(), nil, exploding{}, false))
	})
}

type fakeUpload struct {
	size int64
}

func (f fakeUpload) Size() int64              { return f.size }
func (f fakeUpload) OriginalFilename() string { return "a.png" }
func (f fakeUpload) ContentType() string      { return "image/png" }
func (f fakeUpload) Name() string             { return "file" }

func TestPairArgsDescribesUploads(t *testing.T) {
	params := PairArgs([]string{"file", "note"}, []any{fakeUpload{size: 42}, "hi"})
	assert.Equal(t, model.UploadDescriptor{
		Size:             42,
		OriginalFilename: "a.png",
		ContentType:      "image/png",
		Name:             "file",
	}, params["file"])
	assert.Equal(t, "hi", params["note"])

	out := NewSerializer().ToLoggable(context.Background(), nil, params, false)
	assert.Equal(t, map[string]any{
		"size":             json.Number("42"),
		"originalFilename": "a.png",
		"contentType":      "image/png",
		"name":             "file",
	}, out.(map[string]any)["file"])
}

func TestPairArgsMultipartHeader(t *testing.T) {
	fh := &multipart.FileHeader{
		Filename: "report.pdf",
		Size:     7,
		Header:   textproto.MIMEHeader{"Content-Type": {"application/pdf"}},
	}
	params := PairArgs([]string{"upload"}, []any{fh})
	assert.Equal(t, model.UploadDescriptor{
		Size:             7,
		OriginalFilename: "report.pdf",
		ContentType:      "application/pdf",
		Name:             "upload",
	}, params["upload"])

	var missing *multipart.FileHeader
	params = PairArgs([]string{"upload"}, []any{missing})
	assert.Nil(t, params["upload"])
}

func TestPairArgsLengthMismatch(t *testing.T) {
	assert.Empty(t, PairArgs([]string{"a", "b"}, []any{1, 2, 3}))
	assert.Empty(t, PairArgs(nil, []any{1}))
	assert.Empty(t, PairArgs([]string{"a"}, nil))
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, PairArgs([]string{"a", "b"}, []any{1, 2}))
}
