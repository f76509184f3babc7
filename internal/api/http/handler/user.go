package handler

import (
	"time"

	"github.com/mytolk/mytolk-server/internal/model"
)

// userResponse is the wire representation of a principal. Credentials are
// never serialized.
type userResponse struct {
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	DisplayName    *string `json:"display_name,omitempty"`
	Country        *string `json:"country,omitempty"`
	PhoneNumber    *string `json:"phone_number,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
	Profession     *string `json:"profession,omitempty"`
	Status         string  `json:"status"`
}

func toUserResponse(user model.User) userResponse {
	return userResponse{
		ID:             user.ID.String(),
		Email:          user.Email,
		DisplayName:    user.DisplayName,
		Country:        user.Country,
		PhoneNumber:    user.PhoneNumber,
		ProfilePicture: user.ProfilePicture,
		Profession:     user.Profession,
		Status:         string(user.Status),
	}
}

func toUserResponses(users []model.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, user := range users {
		out = append(out, toUserResponse(user))
	}
	return out
}

// messageResponse is the wire representation of a message. Text carries
// the rendered body: the placeholder for soft-deleted messages, never the
// stored original.
type messageResponse struct {
	ID         string     `json:"id"`
	SenderID   string     `json:"sender_id"`
	ReceiverID string     `json:"receiver_id"`
	Text       string     `json:"text"`
	IsDeleted  bool       `json:"is_deleted"`
	EditedAt   *time.Time `json:"edited_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toMessageResponse(message model.Message) messageResponse {
	return messageResponse{
		ID:         message.ID.String(),
		SenderID:   message.SenderID.String(),
		ReceiverID: message.ReceiverID.String(),
		Text:       message.Rendered(),
		IsDeleted:  message.IsDeleted,
		EditedAt:   message.EditedAt,
		CreatedAt:  message.CreatedAt,
	}
}

func toMessageResponses(messages []model.Message) []messageResponse {
	out := make([]messageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, toMessageResponse(message))
	}
	return out
}
