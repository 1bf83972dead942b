package account

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/StreetFDN/telegram-mcp/internal/domain"
)

const (
	// MaxLimit caps list sizes; larger requests are clamped, not rejected.
	MaxLimit = 100
	// DefaultChatLimit applies when list_chats is called without a limit.
	DefaultChatLimit = 20
	// DefaultMessageLimit applies when get_messages is called without one.
	DefaultMessageLimit = 10
)

// clampLimit normalizes a requested list size.
func clampLimit(limit, def int) int {
	if limit == 0 {
		return def
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// requireAuth guards every operation other than Login. No auto-login: the
// caller must authenticate explicitly first.
func (a *Account) requireAuth() error {
	if a.state != domain.StateAuthenticated {
		return domain.NewError(domain.ErrNotAuthenticated, "not authenticated; call login first")
	}
	return nil
}

// ListChats returns up to limit dialogs, most recently active first. The
// projection is derived fresh on every call.
func (a *Account) ListChats(ctx context.Context, limit int) ([]domain.Chat, error) {
	if limit < 0 {
		return nil, domain.NewError(domain.ErrInvalidArgument, "limit must not be negative")
	}
	limit = clampLimit(limit, DefaultChatLimit)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireAuth(); err != nil {
		return nil, err
	}

	chats, err := a.client.Dialogs(ctx, limit)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("listed chats", zap.Int("count", len(chats)))
	return chats, nil
}

// Messages returns up to limit messages from chatID, newest first. A
// non-zero offset acts as a message-ID cursor: only messages older than it
// are returned.
func (a *Account) Messages(ctx context.Context, chatID int64, limit, offset int) ([]domain.Message, error) {
	if limit < 0 {
		return nil, domain.NewError(domain.ErrInvalidArgument, "limit must not be negative")
	}
	if offset < 0 {
		return nil, domain.NewError(domain.ErrInvalidArgument, "offset must not be negative")
	}
	limit = clampLimit(limit, DefaultMessageLimit)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireAuth(); err != nil {
		return nil, err
	}

	msgs, err := a.client.History(ctx, chatID, limit, offset)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("fetched messages", zap.Int64("chat_id", chatID), zap.Int("count", len(msgs)))
	return msgs, nil
}

// Send delivers text to chatID, optionally as a reply to replyTo. Sending
// is at-most-once: a retry after a timeout may duplicate the message.
func (a *Account) Send(ctx context.Context, chatID int64, text string, replyTo int) (*domain.SendResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.NewError(domain.ErrInvalidArgument, "message text must not be empty")
	}
	if replyTo < 0 {
		return nil, domain.NewError(domain.ErrInvalidArgument, "reply_to must not be negative")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireAuth(); err != nil {
		return nil, err
	}

	result, err := a.client.Send(ctx, chatID, text, replyTo)
	if err != nil {
		return nil, err
	}
	a.logger.Info("message sent", zap.Int64("chat_id", chatID), zap.Int("message_id", result.MessageID))
	return result, nil
}
