package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shaiso/nodus-deploy/internal/repo"
)

// ErrorCode — машиночитаемый код ошибки в теле ответа.
type ErrorCode string

const (
	// CodeInvalidParam — неверный параметр запроса или пути.
	CodeInvalidParam ErrorCode = "INVALID_PARAM"

	// CodeRunNotFound — run с таким ID нет в БД.
	CodeRunNotFound ErrorCode = "RUN_NOT_FOUND"

	// CodeNetworkNotFound — по сети нет ни одного деплоя.
	CodeNetworkNotFound ErrorCode = "NETWORK_NOT_FOUND"

	// CodeDBDisabled — сервер запущен без DB_URL, истории runs нет.
	CodeDBDisabled ErrorCode = "DB_DISABLED"

	// CodeDBUnavailable — БД настроена, но не отвечает.
	CodeDBUnavailable ErrorCode = "DB_UNAVAILABLE"

	CodeInternal ErrorCode = "INTERNAL"
)

// errorBody — тело ответа с ошибкой: {"error": {"code", "message"}}.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// dataBody — тело успешного ответа; Total только у списков.
type dataBody struct {
	Data  any  `json:"data"`
	Total *int `json:"total,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeData отправляет 200 с одним объектом.
func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, dataBody{Data: data})
}

// writeList отправляет 200 со списком и его длиной.
func writeList(w http.ResponseWriter, items any, total int) {
	writeJSON(w, http.StatusOK, dataBody{Data: items, Total: &total})
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// invalidParam отвечает 400 для параметра name со значением value.
func invalidParam(w http.ResponseWriter, name, value string) {
	writeError(w, http.StatusBadRequest, CodeInvalidParam, fmt.Sprintf("invalid %s: %q", name, value))
}

// dbDisabled отвечает 503 на запросы истории без БД.
func dbDisabled(w http.ResponseWriter) {
	writeError(w, http.StatusServiceUnavailable, CodeDBDisabled, "run history requires a database (DB_URL)")
}

// internalError логирует err и отвечает 500 без подробностей.
func internalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
}

// repoError переводит ошибку repo в ответ; false, если err == nil.
// repo.ErrNotFound становится 404 с кодом notFound и сообщением msg.
func repoError(w http.ResponseWriter, logger *slog.Logger, err error, notFound ErrorCode, msg string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound, msg)
	case errors.Is(err, repo.ErrUnavailable):
		logger.Warn("database unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, CodeDBUnavailable, "database unavailable")
	default:
		internalError(w, logger, err)
	}
	return true
}
