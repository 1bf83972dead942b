package telegram

import (
	"context"
	"errors"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tgerr"

	"github.com/StreetFDN/telegram-mcp/internal/domain"
)

// translate maps a provider error onto the closed domain error taxonomy.
// This is the only place raw RPC errors are interpreted; nothing above
// this package sees them. Context errors pass through so callers can tell
// their own cancellation apart from provider failures.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}

	if errors.Is(err, auth.ErrPasswordAuthNeeded) {
		return domain.NewError(domain.ErrPasswordRequired, "two-factor password required")
	}

	if wait, ok := tgerr.AsFloodWait(err); ok {
		return domain.NewRateLimited(wait)
	}

	rpc, ok := tgerr.As(err)
	if !ok {
		return domain.NewError(domain.ErrUnavailable, err.Error())
	}

	switch rpc.Type {
	case "API_ID_INVALID", "API_ID_PUBLISHED_FLOOD", "API_HASH_INVALID":
		return domain.NewError(domain.ErrInvalidCredentials, rpc.Message)
	case "PHONE_NUMBER_INVALID", "PHONE_NUMBER_BANNED", "PHONE_NUMBER_FLOOD", "PHONE_NUMBER_UNOCCUPIED":
		return domain.NewError(domain.ErrInvalidPhone, rpc.Message)
	case "PHONE_CODE_INVALID", "PHONE_CODE_EMPTY":
		return domain.NewError(domain.ErrInvalidCode, rpc.Message)
	case "PHONE_CODE_EXPIRED":
		return domain.NewError(domain.ErrCodeExpired, rpc.Message)
	case "SESSION_PASSWORD_NEEDED":
		return domain.NewError(domain.ErrPasswordRequired, "two-factor password required")
	case "PASSWORD_HASH_INVALID", "PASSWORD_EMPTY":
		return domain.NewError(domain.ErrInvalidPassword, rpc.Message)
	case "PEER_ID_INVALID", "CHAT_ID_INVALID", "CHANNEL_INVALID", "CHANNEL_PRIVATE", "USER_ID_INVALID", "MSG_ID_INVALID":
		return domain.NewError(domain.ErrNotFound, rpc.Message)
	}

	if rpc.Code == 401 {
		return domain.NewError(domain.ErrNotAuthenticated, rpc.Message)
	}

	return domain.NewError(domain.ErrUnavailable, err.Error())
}
