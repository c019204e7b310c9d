package model

import (
	"time"
)

// Call identifies an observed function and the arguments it was invoked with.
// ParamNames is declared by whoever registers the call and runs parallel to Args.
type Call struct {
	Scope      string // 声明所在的类型/包, e.g. "handler.TokenHandler"
	Name       string // 方法名
	ParamNames []string
	Args       []any
}

// ClassMethod renders the call as "Scope.Name".
func (c Call) ClassMethod() string {
	if c.Scope == "" {
		return c.Name
	}
	return c.Scope + "." + c.Name
}

// CallContext is what the interceptor captures on the calling goroutine
// before handing the call off for logging.
type CallContext struct {
	Call
	HTTPMethod string
	URL        string
	URI        string
	IP         string
	Start      time.Time
}

// UploadDescriptor stands in for an uploaded file so that its content never
// reaches the log.
type UploadDescriptor struct {
	Size             int64  `json:"size"`
	OriginalFilename string `json:"originalFilename"`
	ContentType      string `json:"contentType"`
	Name             string `json:"name"`
}

// LogRecord 代表一次被观测调用的完整日志记录
type LogRecord struct {
	Describe         string    `json:"describe"`                 // 描述
	RequestParam     any       `json:"requestParam,omitempty"`   // 请求参数 (脱敏后)
	ResponseResult   any       `json:"responseResult,omitempty"` // 返回结果或错误信息
	ProcessingTimeMs int64     `json:"processingTimeMs"`         // 耗时 (毫秒)
	RequestTime      time.Time `json:"requestTime"`
	FinishTime       time.Time `json:"finishTime"`
	URI              string    `json:"uri"`
	HTTPMethod       string    `json:"httpMethod"`
	ClassMethod      string    `json:"classMethod"`
	IP               string    `json:"ip"`
	CorrelationID    string    `json:"correlationId"`
}
