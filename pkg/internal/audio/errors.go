package audio

import (
	"errors"

	"github.com/bytedance/sonic"
)

// Kind 区分音频领域错误.
type Kind int

const (
	KindNoFile Kind = iota + 1
	KindFileTooLarge
	KindBadMimetype
	KindUrlNotUnique
	KindInvalidURL
	KindNotOwner
	KindHashFault
	KindStorageFault
	KindPersistenceFault
)

var kindCodes = map[Kind]string{
	KindNoFile:           "NO_FILE",
	KindFileTooLarge:     "FILE_TOO_LARGE",
	KindBadMimetype:      "BAD_MIMETYPE",
	KindUrlNotUnique:     "URL_NOT_UNIQUE",
	KindInvalidURL:       "INVALID_URL",
	KindNotOwner:         "NOT_OWNER",
	KindHashFault:        "HASH_FAULT",
	KindStorageFault:     "STORAGE_FAULT",
	KindPersistenceFault: "PERSISTENCE_FAULT",
}

// String 返回对外错误码.
func (k Kind) String() string {
	if c, ok := kindCodes[k]; ok {
		return c
	}

	return "UNKNOWN"
}

// Error 音频领域错误. 校验类错误携带客户端可见的参数，系统类错误包装底层原因.
type Error struct {
	Kind             Kind
	MaxSize          int64
	AllowedMimetypes []string
	Err              error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "audio: " + e.Kind.String() + ": " + e.Err.Error()
	}

	return "audio: " + e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is 按 Kind 比较，errors.Is(err, ErrForbidden) 对任何 NOT_OWNER 错误成立.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.Kind == e.Kind
}

// Code 返回对外错误码.
func (e *Error) Code() string { return e.Kind.String() }

// IsValidation 是否为客户端可修正的错误（422）.
func (e *Error) IsValidation() bool {
	switch e.Kind {
	case KindNoFile, KindFileTooLarge, KindBadMimetype, KindUrlNotUnique, KindInvalidURL, KindNotOwner:
		return true
	default:
		return false
	}
}

type errorJSON struct {
	Code             string   `json:"code"`
	MaxSize          int64    `json:"maxSize,omitempty"`
	AllowedMimetypes []string `json:"allowedMimetypes,omitempty"`
}

// MarshalJSON 只输出错误码与校验参数，不暴露内部原因.
func (e *Error) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(errorJSON{
		Code:             e.Code(),
		MaxSize:          e.MaxSize,
		AllowedMimetypes: e.AllowedMimetypes,
	})
}

var (
	// ErrNotFound 记录不存在、已删除或对访问者不可见.
	ErrNotFound = errors.New("audio not found")
	// ErrForbidden 修改或删除他人的音频.
	ErrForbidden = &Error{Kind: KindNotOwner}
)

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// AsError 提取 *Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}

	return nil, false
}
