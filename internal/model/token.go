package model

import "time"

// TokenRequest 签发令牌的请求体
type TokenRequest struct {
	Owner string `json:"owner" binding:"required"`
	Scope string `json:"scope"`

	// 调用方自带的签名材料, 通常很长
	Secret string `json:"secret"`
}

// Token 已签发的访问令牌
type Token struct {
	ID       string    `json:"id"`
	Owner    string    `json:"owner"`
	Scope    string    `json:"scope"`
	IssuedAt time.Time `json:"issued_at"`
}

// FileSummary 上传文件的处理结果
type FileSummary struct {
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"`
	Lines    int    `json:"lines"`
	SHA256   string `json:"sha256"`
	Note     string `json:"note,omitempty"`
}
