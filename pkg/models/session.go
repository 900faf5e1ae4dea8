package models

import (
	"fmt"
	"regexp"

	"github.com/agentcore/chatcore/internal/errs"
)

var sessionPartRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Session identifies a bounded conversation: "<chat>_<topic>". Sessions are
// created lazily by the History Store on first append, not explicitly
// — this type is just the validated identifier plus an explicit
// Clear operation's call target.
type Session struct {
	Chat  string
	Topic string
}

// NewSession validates the chat/topic parts and returns a Session.
func NewSession(chat, topic string) (Session, error) {
	if !sessionPartRE.MatchString(chat) {
		return Session{}, errs.Validation("models.NewSession", fmt.Sprintf("invalid chat id %q", chat))
	}
	if !sessionPartRE.MatchString(topic) {
		return Session{}, errs.Validation("models.NewSession", fmt.Sprintf("invalid topic id %q", topic))
	}
	return Session{Chat: chat, Topic: topic}, nil
}

// ID returns the "<chat>_<topic>" session identifier.
func (s Session) ID() string { return s.Chat + "_" + s.Topic }
