package api

import (
	"encoding/json"
	"net/http"

	"whisperline/api/middleware"
	"whisperline/auth"
	"whisperline/repositories"
)

type SignupRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AccountResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar,omitempty"`
}

// Signup creates an account and opens a session in one step.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, user, err := h.authSvc.Signup(req.Email, req.FullName, req.Password)
	if err != nil {
		h.DomainError(w, err)
		return
	}

	http.SetCookie(w, h.issuer.SessionCookie(string(token), h.secure))
	h.JSON(w, http.StatusCreated, toAccountResponse(user))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, user, err := h.authSvc.Login(req.Email, req.Password)
	if err != nil {
		h.DomainError(w, err)
		return
	}

	http.SetCookie(w, h.issuer.SessionCookie(string(token), h.secure))
	h.JSON(w, http.StatusOK, toAccountResponse(user))
}

func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, auth.ExpiredCookie())
	h.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Check returns the account behind the current session cookie. The web
// client calls it on boot to restore a logged-in state.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	h.JSON(w, http.StatusOK, toAccountResponse(user))
}

func toAccountResponse(user repositories.User) AccountResponse {
	return AccountResponse{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Avatar:   user.Avatar,
	}
}
