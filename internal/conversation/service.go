package conversation

import (
	"context"
	"errors"
	"time"

	apperrors "fursaver-site/internal/errors"
	"fursaver-site/internal/observer"
	"fursaver-site/internal/storage"
)

// Service owns the live conversations
type Service struct {
	store     *storage.SessionStore[*Session]
	completer Completer
	publisher observer.Subject
}

func NewService(store *storage.SessionStore[*Session], completer Completer, publisher observer.Subject) *Service {
	return &Service{
		store:     store,
		completer: completer,
		publisher: publisher,
	}
}

// Open starts a new conversation holding only the greeting
func (s *Service) Open() *Session {
	return s.store.Create(func(id string) *Session {
		return NewSession(id, s.completer)
	})
}

func (s *Service) Get(id string) (*Session, error) {
	session, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, apperrors.NewNotFoundError("conversation not found", err)
		}
		return nil, apperrors.NewInternalError("failed to load conversation", err)
	}
	return session, nil
}

// Close discards the conversation and its transcript
func (s *Service) Close(id string) error {
	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return apperrors.NewNotFoundError("conversation not found", err)
		}
		return apperrors.NewInternalError("failed to close conversation", err)
	}
	return nil
}

// Send posts text to the conversation identified by id
func (s *Service) Send(ctx context.Context, id, text string) (*Session, Exchange, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, Exchange{}, err
	}
	exchange, err := s.send(ctx, session, text)
	return session, exchange, err
}

// OpenWithPrompt starts a conversation and immediately sends prompt as the
// visitor's first message.
func (s *Service) OpenWithPrompt(ctx context.Context, prompt string) (*Session, Exchange, error) {
	session := s.Open()
	exchange, err := s.send(ctx, session, prompt)
	return session, exchange, err
}

func (s *Service) send(ctx context.Context, session *Session, text string) (Exchange, error) {
	start := time.Now()
	exchange, err := session.Send(ctx, text)
	if err != nil {
		return exchange, err
	}

	event := observer.Event{
		EventType: observer.ChatReplied,
		SessionID: session.ID,
		Duration:  time.Since(start),
		Success:   exchange.Err == nil,
	}
	if exchange.Err != nil {
		event.EventType = observer.ChatFailed
		event.ErrorMessage = exchange.Err.Error()
	}
	s.publisher.NotifyObservers(ctx, event)
	return exchange, nil
}

// Active reports how many conversations are held in memory
func (s *Service) Active() int {
	return s.store.Len()
}
