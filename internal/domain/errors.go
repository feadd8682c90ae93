package domain

import "errors"

type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuth
	KindNotFound
	KindPersistence
)

// Error 业务错误；Msg 可直接返回给调用方，Err 只用于日志
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error   { return &Error{Kind: KindValidation, Msg: msg} }
func Unauthorized(msg string) error { return &Error{Kind: KindAuth, Msg: msg} }
func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Msg: msg} }
func Persistence(msg string, err error) error {
	return &Error{Kind: KindPersistence, Msg: msg, Err: err}
}

// KindOf 非 *Error 一律视为 Persistence
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

func IsValidation(err error) bool   { return err != nil && KindOf(err) == KindValidation }
func IsUnauthorized(err error) bool { return err != nil && KindOf(err) == KindAuth }
func IsNotFound(err error) bool     { return err != nil && KindOf(err) == KindNotFound }
