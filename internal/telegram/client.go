package telegram

import (
	"context"

	"github.com/StreetFDN/telegram-mcp/internal/domain"
)

// Client is the interface for the remote messaging provider. It is the
// single external collaborator of the account layer; tests substitute a
// fake.
//
// Implementations report failures as *domain.Error, translated once at
// this boundary. Context cancellation passes through untranslated.
type Client interface {
	// Connect establishes the network connection. Idempotent.
	Connect(ctx context.Context) error

	// IsAuthorized reports whether the current session is authorized.
	IsAuthorized(ctx context.Context) (bool, error)

	// SendCode dispatches a one-time login code to phone and returns the
	// code hash needed to complete sign-in.
	SendCode(ctx context.Context, phone string) (codeHash string, err error)

	// SignIn completes phone/code sign-in. Accounts with 2FA enabled fail
	// with domain.ErrPasswordRequired.
	SignIn(ctx context.Context, phone, code, codeHash string) error

	// SignInPassword completes 2FA sign-in.
	SignInPassword(ctx context.Context, password string) error

	// Self returns the authenticated account identity.
	Self(ctx context.Context) (*domain.User, error)

	// Dialogs returns up to limit dialogs, most-recently-active first.
	Dialogs(ctx context.Context, limit int) ([]domain.Chat, error)

	// History returns up to limit messages from chatID, newest first.
	// A non-zero offsetID restricts results to messages older than it.
	History(ctx context.Context, chatID int64, limit, offsetID int) ([]domain.Message, error)

	// Send delivers text to chatID, optionally as a reply to replyTo.
	Send(ctx context.Context, chatID int64, text string, replyTo int) (*domain.SendResult, error)

	// ExportSession serializes the current session into a portable token
	// string. Empty when no session material exists yet.
	ExportSession() (string, error)

	// Close disconnects. Safe to call multiple times.
	Close() error
}
