// Package error maps page level failures to a status code and the message
// shown to the user.
package error

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/flosch/pongo2/v6"

	"github.com/matt-dz/recipebox/internal/web/render"
)

type ErrorCode string

const (
	InternalServerError ErrorCode = "internal_server_error"
	BadRequest          ErrorCode = "bad_request"
	UnknownAction       ErrorCode = "unknown_action"
	RequestTooLarge     ErrorCode = "request_too_large"
	NotFound            ErrorCode = "not_found"
	MethodNotAllowed    ErrorCode = "method_not_allowed"
)

var errorCodeToStatusCode = map[ErrorCode]int{
	InternalServerError: http.StatusInternalServerError,
	BadRequest:          http.StatusBadRequest,
	UnknownAction:       http.StatusBadRequest,
	RequestTooLarge:     http.StatusRequestEntityTooLarge,
	NotFound:            http.StatusNotFound,
	MethodNotAllowed:    http.StatusMethodNotAllowed,
}

var errorCodeToMessage = map[ErrorCode]string{
	InternalServerError: "Algo salió mal. Inténtalo de nuevo más tarde.",
	BadRequest:          "La solicitud no es válida.",
	UnknownAction:       "Acción desconocida.",
	RequestTooLarge:     "El formulario es demasiado grande. El límite es de 20 MiB.",
	NotFound:            "Página no encontrada.",
	MethodNotAllowed:    "Método no permitido.",
}

func (ec ErrorCode) StatusCode() int {
	return errorCodeToStatusCode[ec]
}

func (ec ErrorCode) Message() string {
	if msg, ok := errorCodeToMessage[ec]; ok {
		return msg
	}
	return errorCodeToMessage[InternalServerError]
}

func (ec ErrorCode) String() string {
	return string(ec)
}

// RenderError writes the error page for code. The request id is shown so
// a report can be matched with the logs.
func RenderError(w http.ResponseWriter, r *render.Renderer, logger *slog.Logger, code ErrorCode, requestID, back string) {
	status := code.StatusCode()
	if status == 0 {
		status = http.StatusInternalServerError
	}
	message := code.Message()
	if requestID != "" {
		message = fmt.Sprintf("%s (ref. %s)", message, requestID)
	}

	err := r.Page(w, status, render.Error, pongo2.Context{
		"message": message,
		"back":    back,
	})
	if err != nil {
		logger.Error("failed to render error page", slog.String("code", code.String()), slog.Any("error", err))
		http.Error(w, message, status)
	}
}
