package telegram

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/gotd/td/session"
)

// StringSession is a session.Storage backed by memory, importable from and
// exportable to a base64 token string. It is the portable equivalent of a
// session file: callers persist the exported token externally and seed the
// next process with it.
type StringSession struct {
	mem session.StorageMemory
}

// NewStringSession creates a storage seeded from token. An empty token
// yields an empty storage (first-time login).
func NewStringSession(token string) (*StringSession, error) {
	s := &StringSession{}
	if token == "" {
		return s, nil
	}
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode session token: %w", err)
	}
	if err := s.mem.StoreSession(context.Background(), data); err != nil {
		return nil, fmt.Errorf("seed session storage: %w", err)
	}
	return s, nil
}

// LoadSession implements session.Storage.
func (s *StringSession) LoadSession(ctx context.Context) ([]byte, error) {
	return s.mem.LoadSession(ctx)
}

// StoreSession implements session.Storage.
func (s *StringSession) StoreSession(ctx context.Context, data []byte) error {
	return s.mem.StoreSession(ctx, data)
}

// Export returns the current session as a base64 token, or "" when the
// storage holds nothing yet.
func (s *StringSession) Export() (string, error) {
	data, err := s.mem.Bytes(nil)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("dump session: %w", err)
	}
	if len(data) == 0 {
		return "", nil
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
