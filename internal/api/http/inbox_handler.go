package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"rentoo/internal/domain"
	"rentoo/internal/service"
)

type messageRequest struct {
	RentalID    string             `json:"rental_id"`
	ReceiverID  string             `json:"receiver_id"`
	Content     string             `json:"content"`
	MessageType domain.MessageType `json:"message_type"`
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := h.services.Messages.Send(r.Context(), currentUserID(r.Context()), service.MessageInput{
		RentalID:    req.RentalID,
		ReceiverID:  req.ReceiverID,
		Content:     req.Content,
		MessageType: req.MessageType,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.services.Messages.ListForRental(r.Context(), currentUserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(msgs))
}

func (h *Handler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	if err := h.services.Messages.MarkRead(r.Context(), currentUserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := false
	if raw := r.URL.Query().Get("unread_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeValidation(w, "query", []service.FieldError{{Field: "unread_only", Msg: "Input should be a valid boolean"}})
			return
		}
		unreadOnly = v
	}
	notes, err := h.services.Notifications.List(r.Context(), currentUserID(r.Context()), unreadOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(notes))
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.services.Notifications.MarkRead(r.Context(), currentUserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
