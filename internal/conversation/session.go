package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	apperrors "fursaver-site/internal/errors"
)

const (
	Greeting = "Hi! I'm your AI assistant powered by LLaMA 3. I can help answer questions about pet skin diseases, symptoms, and general care. How can I help you today?"

	// FallbackReply stands in for the assistant when the provider fails
	FallbackReply = "I'm sorry, I'm having trouble connecting right now. Please try again in a moment or consult with a veterinarian for immediate concerns."
)

// Message is one line of the transcript
type Message struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	IsBot     bool      `json:"is_bot"`
	Timestamp time.Time `json:"timestamp"`
}

// State of a conversation
type State string

const (
	StateIdle    State = "idle"
	StateSending State = "sending"
)

// Exchange is the result of one send: the user's message and the bot reply
// appended after it.
type Exchange struct {
	User  Message `json:"user"`
	Reply Message `json:"reply"`
	// Err is the provider failure replaced by FallbackReply, if any
	Err error `json:"-"`
}

// Session is one visitor's transcript. IDs increase strictly in append order
// and at most one send is in flight at a time.
type Session struct {
	ID string

	mu        sync.Mutex
	messages  []Message
	lastID    int
	state     State
	completer Completer
	now       func() time.Time
}

// NewSession starts a transcript with the greeting as its first bot message.
func NewSession(id string, completer Completer) *Session {
	s := &Session{
		ID:        id,
		state:     StateIdle,
		completer: completer,
		now:       time.Now,
	}
	s.appendLocked(Greeting, true)
	return s
}

// Send appends the user's message, asks the completer for a reply and
// appends it. Provider failures become FallbackReply and are reported in
// Exchange.Err; blank input and overlapping sends are refused.
func (s *Session) Send(ctx context.Context, text string) (Exchange, error) {
	if strings.TrimSpace(text) == "" {
		return Exchange{}, apperrors.NewValidationError("message must not be empty", nil)
	}

	s.mu.Lock()
	if s.state == StateSending {
		s.mu.Unlock()
		return Exchange{}, apperrors.NewBusyError("a reply is still being generated")
	}
	s.state = StateSending
	user := s.appendLocked(text, false)
	s.mu.Unlock()

	reply, err := s.completer.Complete(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle

	exchange := Exchange{User: user, Err: err}
	if err != nil {
		exchange.Reply = s.appendLocked(FallbackReply, true)
	} else {
		exchange.Reply = s.appendLocked(reply, true)
	}
	return exchange, nil
}

// Messages returns a copy of the transcript in display order
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) appendLocked(text string, isBot bool) Message {
	s.lastID++
	msg := Message{
		ID:        s.lastID,
		Text:      text,
		IsBot:     isBot,
		Timestamp: s.now(),
	}
	s.messages = append(s.messages, msg)
	return msg
}
