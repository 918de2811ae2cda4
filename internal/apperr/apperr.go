// Package apperr описывает классы ошибок, которыми сервисы обмениваются
// с машиной состояний и HTTP-слоем.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindAuthentication    Kind = "AUTHENTICATION"
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
	KindPersistence       Kind = "PERSISTENCE"
	KindMissingData       Kind = "MISSING_DATA"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
)

type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message текст для оператора, без внутренних деталей хранилища.
func (e *Error) Message() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Kind == KindPersistence {
		return "storage error"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func Validation(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

func Authentication(op, msg string) error {
	return &Error{Kind: KindAuthentication, Op: op, Msg: msg}
}

func NotFound(op, msg string) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: msg}
}

func Conflict(op, msg string) error {
	return &Error{Kind: KindConflict, Op: op, Msg: msg}
}

func MissingData(op, msg string) error {
	return &Error{Kind: KindMissingData, Op: op, Msg: msg}
}

func InvalidTransition(op, msg string) error {
	return &Error{Kind: KindInvalidTransition, Op: op, Msg: msg}
}

func Persistence(op string, err error) error {
	return &Error{Kind: KindPersistence, Op: op, Err: err}
}

// KindOf возвращает класс ошибки. Всё, что не *Error, считается ошибкой хранилища.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindPersistence
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message()
	}
	return "internal error"
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindMissingData:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
