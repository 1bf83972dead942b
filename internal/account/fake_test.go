package account_test

import (
	"context"

	"github.com/StreetFDN/telegram-mcp/internal/domain"
)

// fakeClient is an in-memory provider used by the account tests. It
// tracks every remote call so tests can assert that validation failures
// never touch the network.
type fakeClient struct {
	// Account fixture.
	correctCode     string
	twoFA           bool
	correctPassword string
	user            domain.User

	// Session state.
	authorized bool
	signedIn   bool

	// Canned operation results.
	chats    []domain.Chat
	messages []domain.Message

	// Injected failures.
	connectErr  error
	sendCodeErr error
	signInErr   error
	sendErr     error
	dialogsErr  error

	// Call recording.
	connectCalls  int
	remoteCalls   int
	sentCodes     int
	lastCodeHash  string
	lastDialogLim int
	lastChatID    int64
	lastLimit     int
	lastOffset    int
	lastText      string
	lastReplyTo   int
	closeCalls    int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		correctCode:     "12345",
		correctPassword: "hunter2",
		user:            domain.User{ID: 777, FirstName: "Test", Username: "tester", Phone: "+15551234567"},
	}
}

func (f *fakeClient) Connect(ctx context.Context) error {
	f.connectCalls++
	return f.connectErr
}

func (f *fakeClient) IsAuthorized(ctx context.Context) (bool, error) {
	f.remoteCalls++
	return f.authorized, nil
}

func (f *fakeClient) SendCode(ctx context.Context, phone string) (string, error) {
	f.remoteCalls++
	if f.sendCodeErr != nil {
		return "", f.sendCodeErr
	}
	f.sentCodes++
	f.lastCodeHash = "hash"
	return f.lastCodeHash, nil
}

func (f *fakeClient) SignIn(ctx context.Context, phone, code, codeHash string) error {
	f.remoteCalls++
	if f.signInErr != nil {
		return f.signInErr
	}
	if codeHash != f.lastCodeHash {
		return domain.NewError(domain.ErrCodeExpired, "PHONE_CODE_EXPIRED")
	}
	if code != f.correctCode {
		return domain.NewError(domain.ErrInvalidCode, "PHONE_CODE_INVALID")
	}
	if f.twoFA {
		return domain.NewError(domain.ErrPasswordRequired, "two-factor password required")
	}
	f.signedIn = true
	return nil
}

func (f *fakeClient) SignInPassword(ctx context.Context, password string) error {
	f.remoteCalls++
	if password != f.correctPassword {
		return domain.NewError(domain.ErrInvalidPassword, "PASSWORD_HASH_INVALID")
	}
	f.signedIn = true
	return nil
}

func (f *fakeClient) Self(ctx context.Context) (*domain.User, error) {
	f.remoteCalls++
	if !f.signedIn && !f.authorized {
		return nil, domain.NewError(domain.ErrNotAuthenticated, "AUTH_KEY_UNREGISTERED")
	}
	u := f.user
	return &u, nil
}

func (f *fakeClient) Dialogs(ctx context.Context, limit int) ([]domain.Chat, error) {
	f.remoteCalls++
	f.lastDialogLim = limit
	if f.dialogsErr != nil {
		return nil, f.dialogsErr
	}
	if limit < len(f.chats) {
		return f.chats[:limit], nil
	}
	return f.chats, nil
}

func (f *fakeClient) History(ctx context.Context, chatID int64, limit, offsetID int) ([]domain.Message, error) {
	f.remoteCalls++
	f.lastChatID = chatID
	f.lastLimit = limit
	f.lastOffset = offsetID
	if limit < len(f.messages) {
		return f.messages[:limit], nil
	}
	return f.messages, nil
}

func (f *fakeClient) Send(ctx context.Context, chatID int64, text string, replyTo int) (*domain.SendResult, error) {
	f.remoteCalls++
	f.lastChatID = chatID
	f.lastText = text
	f.lastReplyTo = replyTo
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &domain.SendResult{MessageID: 9000, ChatID: chatID}, nil
}

func (f *fakeClient) ExportSession() (string, error) {
	if f.signedIn || f.authorized {
		return "c2Vzc2lvbi1ibG9i", nil
	}
	return "", nil
}

func (f *fakeClient) Close() error {
	f.closeCalls++
	return nil
}
