package users

import (
	"errors"
	"strings"
)

// 用户校验错误码.
const (
	CodeUsernameTaken       = "USERNAME_TAKEN"
	CodeEmailTaken          = "EMAIL_TAKEN"
	CodePasswordsDoNotMatch = "PASSWORDS_DO_NOT_MATCH"
	CodeInvalidUsername     = "INVALID_USERNAME"
	CodeInvalidEmail        = "INVALID_EMAIL"
	CodePasswordTooShort    = "PASSWORD_TOO_SHORT"
)

// FieldError 单个校验错误，序列化为 {"code": "..."}.
type FieldError struct {
	Code string `json:"code"`
}

// ValidationError 一次请求中收集到的全部校验错误.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	codes := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		codes[i] = fe.Code
	}

	return "invalid user: " + strings.Join(codes, ", ")
}

func (e *ValidationError) add(code string) {
	e.Errors = append(e.Errors, FieldError{Code: code})
}

func (e *ValidationError) orNil() error {
	if len(e.Errors) == 0 {
		return nil
	}

	return e
}

// Has 是否包含指定错误码.
func (e *ValidationError) Has(code string) bool {
	for _, fe := range e.Errors {
		if fe.Code == code {
			return true
		}
	}

	return false
}

// AsValidation 提取 ValidationError.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)

	return ve, ok
}
