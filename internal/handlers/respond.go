package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/service"
)

const maxBodyBytes = 1 << 20

type message struct {
	Msg string `json:"msg"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeError maps service and storage errors to HTTP statuses. Anything
// unexpected is logged and reported as a 500 without details.
func writeError(log *logrus.Entry, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeDetail(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": "))
	case errors.Is(err, service.ErrInvalidCredentials):
		writeDetail(w, http.StatusBadRequest, "Incorrect login")
	case errors.Is(err, service.ErrEmailTaken):
		writeDetail(w, http.StatusConflict, "Email already in use")
	case errors.Is(err, service.ErrTypeInUse):
		writeDetail(w, http.StatusConflict, "Cannot remove: maintenance logs reference this type")
	case errors.Is(err, db.ErrDuplicate):
		writeDetail(w, http.StatusConflict, "Maintenance type already exists for this user")
	case errors.Is(err, db.ErrNotFound):
		writeDetail(w, http.StatusNotFound, capitalize(err.Error()))
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.RequestIDFromContext(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).Error("request failed")
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a JSON body into v, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

// userID returns the authenticated caller, answering 401 when absent.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok || claims.UserID == "" {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return "", false
	}
	return claims.UserID, true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
