package model

import "strings"

// DefaultLoggerName 未指定目标 logger 时使用的名称
const DefaultLoggerName = "controllerLog"

// Level is the level an observed call is logged at. Only DEBUG and INFO exist.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
)

// ParseLevel maps a configured level name to a Level. Matching is
// case-insensitive; anything unrecognised falls back to DEBUG.
func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "info":
		return LevelInfo
	default:
		return LevelDebug
	}
}

// Policy 声明一次被观测调用的日志策略
type Policy struct {
	Description string `json:"description" mapstructure:"description"`

	// 空值使用全局 log.level
	Level Level `json:"level" mapstructure:"level"`

	// 目标 logger 名称
	Logger string `json:"logger" mapstructure:"logger"`

	// 替换超长文本
	RedactLongText bool `json:"redact_long_text" mapstructure:"redact_long_text"`

	// 格式化输出
	Pretty bool `json:"pretty" mapstructure:"pretty"`
}

// Resolved returns a copy of p with an unset level replaced by defaultLevel
// and an unset logger name replaced by DefaultLoggerName.
func (p Policy) Resolved(defaultLevel Level) *Policy {
	out := p
	if out.Level == "" {
		out.Level = defaultLevel
	}
	out.Level = ParseLevel(string(out.Level))
	if strings.TrimSpace(out.Logger) == "" {
		out.Logger = DefaultLoggerName
	}
	return &out
}
