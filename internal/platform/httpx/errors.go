package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/quillpress/quillpress/internal/shared"
)

// RespondError is the single translator between domain errors and HTTP
// responses. Anything that is not a *shared.Error collapses to a generic 500
// with the original error recorded for operators; stack traces and storage
// details never reach the client.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *shared.Error
	if errors.As(err, &appErr) {
		body := Body{Code: appErr.Code, Message: appErr.Message}
		switch appErr.Code {
		case http.StatusBadRequest:
			body.Errors = appErr.Errors
		case http.StatusNotFound:
			body.Data = appErr.Data
		}
		JSON(w, appErr.Code, body)
		return
	}

	if logger != nil {
		logger.Error("unhandled error", slog.Any("error", err))
	}
	JSON(w, http.StatusInternalServerError, Body{
		Code:    http.StatusInternalServerError,
		Message: "Internal server error",
	})
}
