package service

import (
	"errors"
	"fmt"
)

// 业务错误。绘制类错误的文本就是回给提交连接的 paintError 消息，
// 因此保持面向客户端的措辞。
var (
	ErrNotIdentified        = errors.New("You must be identified before painting.")
	ErrInvalidCoordinate    = errors.New("Invalid pixel coordinates.")
	ErrInvalidColor         = errors.New("Invalid color format.")
	ErrPaintFailed          = errors.New("Failed to paint pixel due to a server error.")
	ErrUnknownIdentity      = errors.New("unknown user identity")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username or email already exists")
	ErrInternalServer       = errors.New("internal server error")
)

// CooldownActiveError 表示绘制尝试因冷却未结束被拒绝。
// Remaining 是剩余等待秒数，保留一位小数。
type CooldownActiveError struct {
	Remaining float64
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("Please wait %.1f seconds before painting again.", e.Remaining)
}

// IsClientFault 报告错误是否可归因于客户端输入
// (拒绝只回给提交者，不记为服务端故障)。
func IsClientFault(err error) bool {
	var cooldownErr *CooldownActiveError
	return errors.Is(err, ErrNotIdentified) ||
		errors.Is(err, ErrInvalidCoordinate) ||
		errors.Is(err, ErrInvalidColor) ||
		errors.As(err, &cooldownErr)
}
