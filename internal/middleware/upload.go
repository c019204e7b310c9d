package middleware

import (
	"mime/multipart"

	"github.com/GoPolymarket/calllog/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

// FormFile is a multipart upload together with the form field it came in.
// It is logged as a file descriptor, never by content.
type FormFile struct {
	Field string
	File  *multipart.FileHeader
}

func (f FormFile) Size() int64              { return f.File.Size }
func (f FormFile) OriginalFilename() string { return f.File.Filename }
func (f FormFile) ContentType() string      { return f.File.Header.Get("Content-Type") }
func (f FormFile) Name() string             { return f.Field }

// BindFormFile reads the upload in field.
func BindFormFile(c *gin.Context, field string) (FormFile, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return FormFile{}, apperrors.New(apperrors.ErrInvalidRequest, "missing file field "+field, err)
	}
	return FormFile{Field: field, File: fh}, nil
}
