package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"learnquiz/internal/assistant"
	"learnquiz/internal/auth"
	"learnquiz/internal/quiz"
	"learnquiz/internal/validation"
)

const maxBodyBytes = 1 << 20

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, validation.ErrInvalid), errors.Is(err, quiz.ErrTooFewQuestions):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, quiz.ErrCourseNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "course not found"})
	case errors.Is(err, quiz.ErrQuizNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "quiz not found"})
	case errors.Is(err, auth.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found"})
	case errors.Is(err, quiz.ErrCourseExists), errors.Is(err, auth.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, assistant.ErrQuotaExceeded):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "You have exceeded your quota. Please check your plan and billing details."})
	case errors.Is(err, assistant.ErrEmptyPrompt):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, assistant.ErrNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

func parseLimit(r *http.Request, defaultValue int) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get("limit"))
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return parsed, nil
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
