// Package response общие для всех хендлеров разбор запроса и ответ с ошибкой.
package response

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"shopfloor-terminal/internal/apperr"
)

type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// в сообщениях имена полей как в JSON
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode читает JSON-тело и проверяет теги validate.
func Decode(r *http.Request, dst any) error {
	const op = "response.Decode"

	if err := render.DecodeJSON(r.Body, dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation(op, "empty request body")
		}
		return apperr.Validation(op, "invalid JSON")
	}

	return Validate(dst)
}

func Validate(v any) error {
	const op = "response.Validate"

	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	// не структура (например, массив в теле) - проверять нечего
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperr.Validation(op, ValidationMessage(verrs))
	}

	return apperr.Validation(op, err.Error())
}

func ValidationMessage(errs validator.ValidationErrors) string {
	var msgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", err.Field()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("field %s must be greater than %s", err.Field(), err.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}

	return strings.Join(msgs, ", ")
}

// Error пишет {"error","code"} со статусом по классу ошибки.
// 5xx логируются как Error, остальное как Info.
func Error(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := apperr.HTTPStatus(err)

	if status >= http.StatusInternalServerError {
		log.Error("request failed", slog.String("error", err.Error()))
	} else {
		log.Info("request rejected", slog.Int("status", status), slog.String("error", err.Error()))
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorBody{Error: apperr.Message(err), Code: string(apperr.KindOf(err))})
}
