package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mytolk/mytolk-server/internal/logger"
	"github.com/mytolk/mytolk-server/internal/model"
)

// MessageService covers the conversation operations the message endpoints
// expose.
type MessageService interface {
	Send(ctx context.Context, senderID, receiverID uuid.UUID, text string) (model.Message, error)
	Edit(ctx context.Context, actorID, messageID uuid.UUID, text string) (model.Message, error)
	SoftDelete(ctx context.Context, actorID, messageID uuid.UUID) (model.Message, error)
	HardDelete(ctx context.Context, actorID, messageID uuid.UUID) error
	Conversation(ctx context.Context, selfID, partnerID uuid.UUID) ([]model.Message, error)
	RecentCounterparts(ctx context.Context, selfID uuid.UUID) ([]model.User, error)
}

// Message handles the messaging endpoints.
type Message struct {
	messageService MessageService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewMessage creates a new Message handler instance.
func NewMessage(messageService MessageService, contextManager model.ContextManager, logger *logger.Logger) *Message {
	return &Message{
		messageService: messageService,
		contextManager: contextManager,
		logger:         logger,
	}
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiver_id"`
	Text       string `json:"text"`
}

// Send posts a new message from the principal to the receiver.
func (h *Message) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r, h.contextManager)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid receiver_id"})
		return
	}

	message, err := h.messageService.Send(r.Context(), userID, receiverID, req.Text)
	if err != nil {
		h.logger.Error("Message handler: send failed",
			"sender_id", userID,
			"receiver_id", receiverID,
			"error", err.Error())
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMessageResponse(message))
}

type editMessageRequest struct {
	Text string `json:"text"`
}

// Edit replaces the text of an existing message.
func (h *Message) Edit(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r, h.contextManager)
	if !ok {
		return
	}

	messageID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req editMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	message, err := h.messageService.Edit(r.Context(), userID, messageID, req.Text)
	if err != nil {
		h.logger.Error("Message handler: edit failed",
			"message_id", messageID,
			"error", err.Error())
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMessageResponse(message))
}

// Delete removes a message. By default the message is flagged deleted and
// its text replaced with a placeholder; ?hard=true removes the row
// permanently.
func (h *Message) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r, h.contextManager)
	if !ok {
		return
	}

	messageID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if r.URL.Query().Get("hard") == "true" {
		if err := h.messageService.HardDelete(r.Context(), userID, messageID); err != nil {
			h.logger.Error("Message handler: hard delete failed",
				"message_id", messageID,
				"error", err.Error())
			handleError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	message, err := h.messageService.SoftDelete(r.Context(), userID, messageID)
	if err != nil {
		h.logger.Error("Message handler: soft delete failed",
			"message_id", messageID,
			"error", err.Error())
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMessageResponse(message))
}

// Conversation lists the messages between the principal and the partner,
// oldest first.
func (h *Message) Conversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r, h.contextManager)
	if !ok {
		return
	}

	partnerID, ok := pathUUID(w, r, "partner_id")
	if !ok {
		return
	}

	messages, err := h.messageService.Conversation(r.Context(), userID, partnerID)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMessageResponses(messages))
}

// RecentChats lists the principal's conversation partners, most recent
// first.
func (h *Message) RecentChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r, h.contextManager)
	if !ok {
		return
	}

	counterparts, err := h.messageService.RecentCounterparts(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponses(counterparts))
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
