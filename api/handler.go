package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"whisperline/auth"
	"whisperline/errors"
	"whisperline/repositories"
	"whisperline/services"
)

// Handler owns the REST surface. Each endpoint has its own request and
// response structs; errors go out as {"message": "..."} with the status
// derived from the domain error.
type Handler struct {
	log      *slog.Logger
	authSvc  services.IAuthService
	messages services.IMessageService
	users    repositories.IUserRepository
	issuer   auth.TokenIssuer
	secure   bool
}

func NewHandler(log *slog.Logger, authSvc services.IAuthService,
	messages services.IMessageService, users repositories.IUserRepository,
	issuer auth.TokenIssuer, secure bool) *Handler {
	return &Handler{
		log:      log,
		authSvc:  authSvc,
		messages: messages,
		users:    users,
		issuer:   issuer,
		secure:   secure,
	}
}

func (h *Handler) JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"message": message})
}

// DomainError maps a core error onto the REST taxonomy. Server faults keep
// a generic message; the detailed cause stays in the logs.
func (h *Handler) DomainError(w http.ResponseWriter, err error) {
	status := errors.MapToHTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "error", err)
		h.Error(w, status, "internal server error")
		return
	}
	h.Error(w, status, err.Error())
}
