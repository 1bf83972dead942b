package account_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/StreetFDN/telegram-mcp/internal/account"
	"github.com/StreetFDN/telegram-mcp/internal/domain"
)

func newAccount(f *fakeClient, seeded bool) *account.Account {
	return account.New(f, seeded, zap.NewNop())
}

func wantKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("got nil error, want %s", kind)
	}
	got, ok := domain.KindOf(err)
	if !ok {
		t.Fatalf("got %v, want domain error of kind %s", err, kind)
	}
	if got != kind {
		t.Errorf("error kind = %s, want %s", got, kind)
	}
}

func TestLogin_PhoneRequired(t *testing.T) {
	f := newFakeClient()
	a := newAccount(f, false)

	_, err := a.Login(context.Background(), "", "", "")
	wantKind(t, err, domain.ErrInvalidArgument)
	if a.State() != domain.StateUnauthenticated {
		t.Errorf("state = %s, want unauthenticated", a.State())
	}
	if f.connectCalls != 0 {
		t.Errorf("connect calls = %d, want 0 (validation precedes dialing)", f.connectCalls)
	}
	if f.remoteCalls != 0 {
		t.Errorf("remote calls = %d, want 0", f.remoteCalls)
	}
}

func TestLogin_PhoneOnlySendsCode(t *testing.T) {
	f := newFakeClient()
	a := newAccount(f, false)

	res, err := a.Login(context.Background(), "+15551234567", "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Status != domain.AuthCodeSent {
		t.Errorf("status = %s, want code_sent", res.Status)
	}
	if a.State() != domain.StateCodeSent {
		t.Errorf("state = %s, want code_sent", a.State())
	}
}

func TestLogin_ResendIsIdempotent(t *testing.T) {
	f := newFakeClient()
	a := newAccount(f, false)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := a.Login(ctx, "+15551234567", "", "")
		if err != nil {
			t.Fatalf("Login #%d: %v", i+1, err)
		}
		if res.Status != domain.AuthCodeSent {
			t.Errorf("Login #%d status = %s, want code_sent", i+1, res.Status)
		}
	}
	if a.State() != domain.StateCodeSent {
		t.Errorf("state = %s, want code_sent", a.State())
	}
	if f.sentCodes != 2 {
		t.Errorf("codes sent = %d, want 2", f.sentCodes)
	}
}

func TestLogin_WrongCodeStaysCodeSent(t *testing.T) {
	f := newFakeClient()
	a := newAccount(f, false)
	ctx := context.Background()

	if _, err := a.Login(ctx, "+15551234567", "", ""); err != nil {
		t.Fatalf("send code: %v", err)
	}

	_, err := a.Login(ctx, "+15551234567", "00000", "")
	wantKind(t, err, domain.ErrInvalidCode)
	if a.State() != domain.StateCodeSent {
		t.Errorf("state = %s, want code_sent", a.State())
	}
}

func TestLogin_FullFlow(t *testing.T) {
	f := newFakeClient()
	a := newAccount(f, false)
	ctx := context.Background()

	res, err := a.Login(ctx, "+15551234567", "", "")
	if err != nil {
		t.Fatalf("send code: %v", err)
	}
	if res.Status != domain.AuthCodeSent {
		t.Fatalf("status = %s, want code_sent", res.Status)
	}

	_, err = a.Login(ctx, "+15551234567", "00000", "")
	wantKind(t, err, domain.ErrInvalidCode)
	if a.State() != domain.StateCodeSent {
		t.Fatalf("state after wrong code = %s, want code_sent", a.State())
	}

	res, err = a.Login(ctx, "+15551234567", "12345", "")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if res.Status != domain.AuthAuthenticated {
		t.Errorf("status = %s, want authenticated", res.Status)
	}
	if res.Session == "" {
		t.Error("session token is empty, want non-empty")
	}
	if res.User == nil || res.User.ID != 777 {
		t.Errorf("user = %+v, want ID 777", res.User)
	}
	if a.State() != domain.StateAuthenticated {
		t.Errorf("state = %s, want authenticated", a.State())
	}
}

func TestLogin_CodeWithoutPendingStep(t *testing.T) {
	f := newFakeClient()
	a := newAccount(f, false)

	before := f.remoteCalls
	_, err := a.Login(context.Background(), "+15551234567", "12345", "")
	wantKind(t, err, domain.ErrInvalidArgument)
	if f.remoteCalls != before {
		t.Errorf("remote calls = %d, want %d (no sign-in attempt)", f.remoteCalls, before)
	}
}

func TestLogin_TwoFactorFlow(t *testing.T) {
	f := newFakeClient()
	f.twoFA = true
	a := newAccount(f, false)
	ctx := context.Background()

	if _, err := a.Login(ctx, "+15551234567", "", ""); err != nil {
		t.Fatalf("send code: %v", err)
	}

	res, err := a.Login(ctx, "+15551234567", "12345", "")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if res.Status != domain.AuthPasswordNeeded {
		t.Fatalf("status = %s, want password_needed", res.Status)
	}
	if a.State() != domain.StatePasswordNeeded {
		t.Fatalf("state = %s, want password_needed", a.State())
	}

	_, err = a.Login(ctx, "", "", "wrong")
	wantKind(t, err, domain.ErrInvalidPassword)
	if a.State() != domain.StatePasswordNeeded {
		t.Fatalf("state after wrong password = %s, want password_needed", a.State())
	}

	res, err = a.Login(ctx, "", "", "hunter2")
	if err != nil {
		t.Fatalf("password sign in: %v", err)
	}
	if res.Status != domain.AuthAuthenticated {
		t.Errorf("status = %s, want authenticated", res.Status)
	}
}

func TestLogin_TwoFactorSingleCall(t *testing.T) {
	f := newFakeClient()
	f.twoFA = true
	a := newAccount(f, false)
	ctx := context.Background()

	if _, err := a.Login(ctx, "+15551234567", "", ""); err != nil {
		t.Fatalf("send code: %v", err)
	}

	// Code and password supplied together complete both steps at once.
	res, err := a.Login(ctx, "+15551234567", "12345", "hunter2")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if res.Status != domain.AuthAuthenticated {
		t.Errorf("status = %s, want authenticated", res.Status)
	}
}

func TestLogin_CodeExpiredResetsFlow(t *testing.T) {
	f := newFakeClient()
	a := newAccount(f, false)
	ctx := context.Background()

	if _, err := a.Login(ctx, "+15551234567", "", ""); err != nil {
		t.Fatalf("send code: %v", err)
	}

	f.signInErr = domain.NewError(domain.ErrCodeExpired, "PHONE_CODE_EXPIRED")
	_, err := a.Login(ctx, "+15551234567", "12345", "")
	wantKind(t, err, domain.ErrCodeExpired)
	if a.State() != domain.StateUnauthenticated {
		t.Fatalf("state = %s, want unauthenticated", a.State())
	}

	// The pending step is gone; sign-in must restart from the phone step.
	f.signInErr = nil
	_, err = a.Login(ctx, "+15551234567", "12345", "")
	wantKind(t, err, domain.ErrInvalidArgument)
}

func TestLogin_SendCodeCancelledKeepsCodeSent(t *testing.T) {
	f := newFakeClient()
	f.sendCodeErr = context.Canceled
	a := newAccount(f, false)
	ctx := context.Background()

	// The code may have gone out even though the reply was lost, so the
	// step counts as taken.
	_, err := a.Login(ctx, "+15551234567", "", "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if a.State() != domain.StateCodeSent {
		t.Fatalf("state = %s, want code_sent", a.State())
	}

	// The hash was lost with the reply; signing in requires a re-send.
	f.sendCodeErr = nil
	_, err = a.Login(ctx, "+15551234567", "12345", "")
	wantKind(t, err, domain.ErrInvalidArgument)

	res, err := a.Login(ctx, "+15551234567", "", "")
	if err != nil {
		t.Fatalf("re-send: %v", err)
	}
	if res.Status != domain.AuthCodeSent {
		t.Fatalf("status = %s, want code_sent", res.Status)
	}
	res, err = a.Login(ctx, "+15551234567", "12345", "")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if res.Status != domain.AuthAuthenticated {
		t.Errorf("status = %s, want authenticated", res.Status)
	}
}

func TestLogin_PasswordStepNamesMissingPassword(t *testing.T) {
	f := newFakeClient()
	f.twoFA = true
	a := newAccount(f, false)
	ctx := context.Background()

	if _, err := a.Login(ctx, "+15551234567", "", ""); err != nil {
		t.Fatalf("send code: %v", err)
	}
	if _, err := a.Login(ctx, "+15551234567", "12345", ""); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	before := f.connectCalls
	_, err := a.Login(ctx, "", "", "")
	wantKind(t, err, domain.ErrInvalidArgument)
	if !strings.Contains(err.Error(), "password") {
		t.Errorf("error = %q, want the password named as the awaited input", err)
	}
	if a.State() != domain.StatePasswordNeeded {
		t.Errorf("state = %s, want password_needed", a.State())
	}
	if f.connectCalls != before {
		t.Errorf("connect calls = %d, want %d", f.connectCalls, before)
	}
}

func TestLogin_SeededSession(t *testing.T) {
	f := newFakeClient()
	f.authorized = true
	a := newAccount(f, true)

	res, err := a.Login(context.Background(), "", "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Status != domain.AuthAuthenticated {
		t.Errorf("status = %s, want authenticated", res.Status)
	}
	if res.Session == "" {
		t.Error("session token is empty, want non-empty")
	}
}

func TestLogin_SeededSessionInvalid(t *testing.T) {
	f := newFakeClient()
	f.authorized = false
	a := newAccount(f, true)

	// The stale token falls back to the phone flow.
	_, err := a.Login(context.Background(), "", "", "")
	wantKind(t, err, domain.ErrInvalidArgument)

	res, err := a.Login(context.Background(), "+15551234567", "", "")
	if err != nil {
		t.Fatalf("Login with phone: %v", err)
	}
	if res.Status != domain.AuthCodeSent {
		t.Errorf("status = %s, want code_sent", res.Status)
	}
}

func TestLogin_AuthenticatedIsIdempotent(t *testing.T) {
	f := newFakeClient()
	f.authorized = true
	a := newAccount(f, true)
	ctx := context.Background()

	if _, err := a.Login(ctx, "", "", ""); err != nil {
		t.Fatalf("first Login: %v", err)
	}
	res, err := a.Login(ctx, "", "", "")
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if res.Status != domain.AuthAuthenticated {
		t.Errorf("status = %s, want authenticated", res.Status)
	}
	if f.sentCodes != 0 {
		t.Errorf("codes sent = %d, want 0", f.sentCodes)
	}
}

func TestSession_ExportsCurrentToken(t *testing.T) {
	f := newFakeClient()
	f.authorized = true
	a := newAccount(f, true)

	if _, err := a.Login(context.Background(), "", "", ""); err != nil {
		t.Fatalf("Login: %v", err)
	}
	token, err := a.Session()
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if token != "c2Vzc2lvbi1ibG9i" {
		t.Errorf("token = %q, want the exported session blob", token)
	}
}

func TestClose_Idempotent(t *testing.T) {
	f := newFakeClient()
	a := newAccount(f, false)

	if err := a.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
