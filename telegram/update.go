// Package telegram is the transport glue: it turns Bot API webhook
// updates into core commands and core notifications into sendMessage
// calls. No pairing rule lives here.
package telegram

import (
	"strconv"

	"github.com/itzme-challa/TalkStranger-chatbot/domain"
)

// Update is the subset of the Bot API update payload the bot consumes.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message" validate:"omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Chat struct {
	ID int64 `json:"id" validate:"required"`
}

// ParticipantID maps the chat onto the core's opaque identifier.
func (c Chat) ParticipantID() domain.ParticipantID {
	return domain.ParticipantID(strconv.FormatInt(c.ID, 10))
}
