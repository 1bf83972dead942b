// Package account owns the single live Telegram session: the login state
// machine and the chat/message operations exposed to the transport layer.
// All operations are serialized on one mutex because the underlying
// connection is not safe for concurrent use.
package account

import (
	"sync"

	"go.uber.org/zap"

	"github.com/StreetFDN/telegram-mcp/internal/domain"
	"github.com/StreetFDN/telegram-mcp/internal/telegram"
)

// Account holds the session state for one Telegram user account.
type Account struct {
	mu     sync.Mutex
	client telegram.Client
	logger *zap.Logger

	state           domain.AuthState
	pendingPhone    string
	pendingCodeHash string
	self            *domain.User

	// seeded is true when a persisted session token was supplied at
	// construction; probed flips once the token has been checked.
	seeded bool
	probed bool
}

// New creates an Account around the given provider client. seeded reports
// whether a persisted session token was supplied, in which case the first
// login call probes it instead of starting the phone flow.
func New(client telegram.Client, seeded bool, logger *zap.Logger) *Account {
	return &Account{
		client: client,
		logger: logger,
		state:  domain.StateUnauthenticated,
		seeded: seeded,
	}
}

// State returns the current login state.
func (a *Account) State() domain.AuthState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Session exports the current session token for external persistence.
func (a *Account) Session() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client.ExportSession()
}

// Close disconnects the underlying client. Safe to call multiple times.
func (a *Account) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client.Close()
}

// maskPhone hides all but the last four digits for logging.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	masked := []byte(phone)
	for i := 0; i < len(masked)-4; i++ {
		if masked[i] >= '0' && masked[i] <= '9' {
			masked[i] = '*'
		}
	}
	return string(masked)
}
