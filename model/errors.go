package model

import "fmt"

// ErrorKind 机器可读的错误原因
type ErrorKind string

const (
	KindNotFound            ErrorKind = "not_found"
	KindDuplicateEntry      ErrorKind = "duplicate_entry"
	KindOutOfRange          ErrorKind = "out_of_range"
	KindValidation          ErrorKind = "validation_error"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	KindEmptyCollection     ErrorKind = "empty_collection"
	KindEndOfList           ErrorKind = "end_of_list"
	KindForbidden           ErrorKind = "forbidden"
)

// Error 业务错误，errors.Is 按 Kind 匹配
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return e.Detail
}

// Is 让 errors.Is(err, model.ErrNotFound) 匹配同类错误
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrDuplicateEntry      = &Error{Kind: KindDuplicateEntry}
	ErrOutOfRange          = &Error{Kind: KindOutOfRange}
	ErrValidation          = &Error{Kind: KindValidation}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable}
	ErrEmptyCollection     = &Error{Kind: KindEmptyCollection}
	ErrEndOfList           = &Error{Kind: KindEndOfList}
	ErrForbidden           = &Error{Kind: KindForbidden}
)

func newError(kind ErrorKind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) error {
	return newError(KindNotFound, format, args...)
}

func DuplicateEntry(format string, args ...interface{}) error {
	return newError(KindDuplicateEntry, format, args...)
}

func OutOfRange(format string, args ...interface{}) error {
	return newError(KindOutOfRange, format, args...)
}

func Validation(format string, args ...interface{}) error {
	return newError(KindValidation, format, args...)
}

func UpstreamUnavailable(format string, args ...interface{}) error {
	return newError(KindUpstreamUnavailable, format, args...)
}

func EmptyCollection(format string, args ...interface{}) error {
	return newError(KindEmptyCollection, format, args...)
}

func EndOfList(format string, args ...interface{}) error {
	return newError(KindEndOfList, format, args...)
}

func Forbidden(format string, args ...interface{}) error {
	return newError(KindForbidden, format, args...)
}
