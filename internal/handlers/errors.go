package handlers

import (
	"errors"
	"net/http"

	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"

	"go.uber.org/zap"
)

// handleServiceError переводит ошибку сервиса в HTTP-статус.
// Три непересекающихся корзины: 404 для отсутствующего ресурса,
// 500 для конфликта версий (политики retry/merge нет) и любой
// ошибки хранилища. 400 обработчики выставляют сами до вызова сервиса.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if errors.Is(err, repo.ErrNotFound) {
		logger.Warn("HTTP: Ресурс не найден",
			zap.String("operation", operation),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusNotFound, err.Error())
		return
	}

	if errors.Is(err, repo.ErrVersionConflict) {
		logger.Error("HTTP: Неразрешимый конфликт версий", err,
			zap.String("operation", operation),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Error("HTTP: Ошибка Service", err,
		zap.String("operation", operation),
		zap.String("client_ip", r.RemoteAddr))
	responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
}

func responseWithViolations(w http.ResponseWriter, violations []task.Violation) {
	responseWithJSON(w, http.StatusBadRequest, map[string]any{
		"error":      "ошибка валидации",
		"violations": violations,
	})
}
