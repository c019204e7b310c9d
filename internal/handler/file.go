package handler

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/GoPolymarket/calllog/internal/middleware"
	"github.com/GoPolymarket/calllog/internal/model"
	"github.com/GoPolymarket/calllog/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

type FileHandler struct{}

func NewFileHandler() *FileHandler {
	return &FileHandler{}
}

// UploadCall names the observed Upload endpoint.
var UploadCall = model.Call{Scope: "handler.FileHandler", Name: "Upload", ParamNames: []string{"file", "note"}}

func (h *FileHandler) BindUpload(c *gin.Context) ([]any, error) {
	f, err := middleware.BindFormFile(c, "file")
	if err != nil {
		return nil, err
	}
	return []any{f, c.PostForm("note")}, nil
}

// Upload 统计上传文件的字节数, 行数和摘要
func (h *FileHandler) Upload(ctx context.Context, args []any) (*model.FileSummary, error) {
	f := args[0].(middleware.FormFile)
	note, _ := args[1].(string)

	src, err := f.File.Open()
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidRequest, "cannot open upload", err)
	}
	defer src.Close()

	hash := sha256.New()
	r := bufio.NewReader(io.TeeReader(src, hash))
	summary := &model.FileSummary{Filename: f.OriginalFilename(), Note: note}
	for {
		line, err := r.ReadBytes('\n')
		summary.Bytes += int64(len(line))
		if len(line) > 0 {
			summary.Lines++
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.New(apperrors.ErrInternal, "read upload", err)
		}
		if ctx.Err() != nil {
			return nil, apperrors.New(apperrors.ErrUnavailable, "request cancelled", ctx.Err())
		}
	}
	summary.SHA256 = hex.EncodeToString(hash.Sum(nil))
	return summary, nil
}
