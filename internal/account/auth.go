package account

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/StreetFDN/telegram-mcp/internal/domain"
)

// Login advances the authentication flow by one step. The flow is
// re-entrant: the caller supplies phone first, then phone+code, then
// optionally the 2FA password, and Login moves through
// unauthenticated → code_sent → password_needed → authenticated.
// Terminal failures leave the state where it was, so the caller retries
// the same step; an expired code resets the flow to the phone step.
func (a *Account) Login(ctx context.Context, phone, code, password string) (*domain.AuthResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == domain.StateAuthenticated {
		return a.authResult(ctx)
	}

	needsProbe := a.state == domain.StateUnauthenticated && a.seeded && !a.probed
	finishingPassword := a.state == domain.StatePasswordNeeded && password != ""

	// Arguments are validated before the connection is dialed: only a
	// seeded-token probe or a pending 2FA password step may proceed
	// without a phone.
	if phone == "" && !needsProbe && !finishingPassword {
		return nil, missingInputError(a.state)
	}

	if err := a.client.Connect(ctx); err != nil {
		return nil, err
	}

	// A seeded session token is probed once; if still valid, no phone or
	// code is needed.
	if needsProbe {
		a.probed = true
		authorized, err := a.client.IsAuthorized(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			a.logger.Warn("session probe failed", zap.Error(err))
		}
		if authorized {
			return a.finishAuth(ctx)
		}
		a.logger.Info("persisted session is not authorized, phone login required")
	}

	switch {
	case finishingPassword:
		return a.finishPassword(ctx, password)

	case phone == "":
		// Only reachable when a seeded probe came back unauthorized.
		return nil, missingInputError(a.state)

	case code == "":
		return a.sendCode(ctx, phone)

	default:
		return a.signIn(ctx, phone, code, password)
	}
}

// missingInputError names the input the current step is waiting for.
func missingInputError(state domain.AuthState) *domain.Error {
	if state == domain.StatePasswordNeeded {
		return domain.NewError(domain.ErrInvalidArgument, "two-factor password is required to finish authentication")
	}
	return domain.NewError(domain.ErrInvalidArgument, "phone number is required to start authentication")
}

// sendCode dispatches a one-time code. Re-invoking for the same phone
// before a code is supplied re-sends; a different phone restarts the
// attempt.
func (a *Account) sendCode(ctx context.Context, phone string) (*domain.AuthResult, error) {
	hash, err := a.client.SendCode(ctx, phone)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// The code may have been dispatched even though the reply was
			// lost; re-sending is idempotent, so record the step as taken.
			a.state = domain.StateCodeSent
			a.pendingPhone = phone
			a.pendingCodeHash = ""
		}
		return nil, err
	}

	a.state = domain.StateCodeSent
	a.pendingPhone = phone
	a.pendingCodeHash = hash
	a.logger.Info("verification code sent", zap.String("phone", maskPhone(phone)))

	return &domain.AuthResult{
		Status:  domain.AuthCodeSent,
		Message: "Verification code sent to your phone. Call login again with the code.",
	}, nil
}

// signIn completes the phone/code step and, when 2FA is enabled, the
// optional password step in the same call.
func (a *Account) signIn(ctx context.Context, phone, code, password string) (*domain.AuthResult, error) {
	if a.pendingCodeHash == "" {
		return nil, domain.NewError(domain.ErrInvalidArgument, "no pending verification code; call login with the phone number first")
	}

	err := a.client.SignIn(ctx, phone, code, a.pendingCodeHash)
	switch {
	case err == nil:
		return a.finishAuth(ctx)

	case domain.IsKind(err, domain.ErrPasswordRequired):
		a.state = domain.StatePasswordNeeded
		if password == "" {
			return &domain.AuthResult{
				Status:  domain.AuthPasswordNeeded,
				Message: "Two-factor authentication is enabled. Call login again with the password.",
			}, nil
		}
		return a.finishPassword(ctx, password)

	case domain.IsKind(err, domain.ErrCodeExpired):
		// The flow must restart from the phone step.
		a.state = domain.StateUnauthenticated
		a.pendingPhone = ""
		a.pendingCodeHash = ""
		return nil, err

	default:
		// Invalid code, rate limit and the rest: the step is retried, the
		// state stays put.
		return nil, err
	}
}

// finishPassword completes the 2FA step. A wrong password keeps the state
// at password_needed so only the password needs re-supplying.
func (a *Account) finishPassword(ctx context.Context, password string) (*domain.AuthResult, error) {
	if err := a.client.SignInPassword(ctx, password); err != nil {
		return nil, err
	}
	return a.finishAuth(ctx)
}

// finishAuth marks the session authenticated and builds the terminal
// result. The remote sign-in has already succeeded at this point, so the
// state flips before the identity fetch; a failed fetch is reported but a
// repeated login call recovers the identity without redoing the flow.
func (a *Account) finishAuth(ctx context.Context) (*domain.AuthResult, error) {
	a.state = domain.StateAuthenticated
	a.pendingPhone = ""
	a.pendingCodeHash = ""
	return a.authResult(ctx)
}

func (a *Account) authResult(ctx context.Context) (*domain.AuthResult, error) {
	self, err := a.client.Self(ctx)
	if err != nil {
		return nil, err
	}
	a.self = self

	session, err := a.client.ExportSession()
	if err != nil {
		return nil, domain.NewError(domain.ErrUnavailable, "export session: "+err.Error())
	}

	a.logger.Info("authenticated", zap.Int64("user_id", self.ID), zap.String("username", self.Username))
	return &domain.AuthResult{
		Status:  domain.AuthAuthenticated,
		User:    self,
		Session: session,
		Message: "Authenticated as " + self.DisplayName(),
	}, nil
}
