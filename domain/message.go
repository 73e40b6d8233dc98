// Package domain contains core concepts of the chat network.
// This file defines Message records and their tombstone rules.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageKind string

const (
	MessageUser   MessageKind = "user"
	MessageImage  MessageKind = "image"
	MessageSystem MessageKind = "system"
	MessageServer MessageKind = "server"
	MessageBot    MessageKind = "bot"
)

// Message is one entry of a room log. Edits and deletions never move or
// remove a message: they flip flags and rewrite the content in place.
type Message struct {
	ID         uuid.UUID
	Room       string
	AuthorID   string
	AuthorName string
	Kind       MessageKind
	Content    string
	Deleted    bool
	Edited     bool
	At         time.Time
}

func NewUserMessage(room, authorID, authorName, content string) Message {
	return Message{
		ID:         uuid.New(),
		Room:       room,
		AuthorID:   authorID,
		AuthorName: authorName,
		Kind:       MessageUser,
		Content:    content,
		At:         time.Now().UTC(),
	}
}

// NewImageMessage carries the public URL of an uploaded image, not the
// image bytes themselves.
func NewImageMessage(room, authorID, authorName, url string) Message {
	return Message{
		ID:         uuid.New(),
		Room:       room,
		AuthorID:   authorID,
		AuthorName: authorName,
		Kind:       MessageImage,
		Content:    url,
		At:         time.Now().UTC(),
	}
}

func NewSystemMessage(room, content string) Message {
	return Message{
		ID:      uuid.New(),
		Room:    room,
		Kind:    MessageSystem,
		Content: content,
		At:      time.Now().UTC(),
	}
}

func NewBotMessage(room, botName, content string) Message {
	return Message{
		ID:         uuid.New(),
		Room:       room,
		AuthorID:   "bot",
		AuthorName: botName,
		Kind:       MessageBot,
		Content:    content,
		At:         time.Now().UTC(),
	}
}
