package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"whisperline/api/middleware"
	"whisperline/domain"
	"whisperline/repositories"
	"whisperline/wire"
)

type SendMessageRequest struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

// Contacts returns every user except the caller, for the sidebar.
func (h *Handler) Contacts(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	users, err := h.users.ListUsersExcept(user.ID)
	if err != nil {
		h.DomainError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, lo.Map(users, func(u repositories.User, _ int) wire.UserResponse {
		return wire.UserResponse{ID: u.ID, FullName: u.FullName, Avatar: u.Avatar}
	}))
}

// Conversation returns the full thread with the peer, oldest first.
func (h *Handler) Conversation(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	peerID := chi.URLParam(r, "id")

	messages, err := h.messages.Conversation(user.ID, peerID)
	if err != nil {
		h.DomainError(w, err)
		return
	}

	responses := wire.ToMessageResponses(messages)
	if responses == nil {
		responses = []wire.MessageResponse{}
	}
	h.JSON(w, http.StatusOK, responses)
}

// SendMessage persists and routes one message, answering with the
// canonical stored copy so the sender renders server state, not its own
// optimistic one.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	receiverID := chi.URLParam(r, "id")

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.messages.Send(r.Context(), domain.SendMessageCommand{
		SenderID:   user.ID,
		ReceiverID: receiverID,
		Text:       req.Text,
		Image:      req.Image,
	})
	if err != nil {
		h.DomainError(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, wire.ToMessageResponse(msg))
}

// MarkRead flips one message to read and notifies the sender.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserFromContext(r.Context()); !ok {
		h.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	messageID, err := uuid.Parse(chi.URLParam(r, "messageId"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid message ID format")
		return
	}

	msg, err := h.messages.MarkRead(r.Context(), messageID)
	if err != nil {
		h.DomainError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, wire.ToMessageResponse(msg))
}
