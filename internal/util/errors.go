package util

import "errors"

var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this course")
	ErrNotEnrolled        = errors.New("not enrolled in this course")
	ErrCourseCompleted    = errors.New("cannot unenroll a completed course")
	ErrModuleNotFound     = errors.New("module not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username or email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// ValidationErrors 字段级校验错误，key 为字段名
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	return "validation failed"
}

func (v ValidationErrors) Any() bool {
	return len(v) > 0
}
