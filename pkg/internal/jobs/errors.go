package jobs

import "errors"

// ErrFatal 标记不应重试的任务错误，消息直接进入死信主题.
var ErrFatal = errors.New("fatal job error")

// ErrMissingDuration 探测结果中没有 format.duration.
var ErrMissingDuration = errors.New("`ffData.format.duration` does not exist.") //nolint:staticcheck // 对外可见的固定文案

// fatalError 保留原始错误文案，同时可被 errors.Is(err, ErrFatal) 识别.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }

func (e *fatalError) Unwrap() []error { return []error{ErrFatal, e.err} }

// Fatal 把 err 标记为不可重试.
func Fatal(err error) error {
	if err == nil {
		return nil
	}

	return &fatalError{err: err}
}

// IsFatal 用于 router 的重试判定.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}
