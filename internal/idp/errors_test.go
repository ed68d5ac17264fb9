package idp

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestNormalizeProviderCodes(t *testing.T) {
	cases := []struct {
		code string
		want Kind
	}{
		{CodeEmailNotFound, KindInvalidCredential},
		{CodeInvalidPassword, KindInvalidCredential},
		{CodeInvalidLogin, KindInvalidCredential},
		{CodeUserDisabled, KindInvalidCredential},
		{CodeTooManyAttempts, KindInvalidCredential},
		{CodeEmailExists, KindAccountConflict},
		{CodeNeedConfirmation, KindAccountConflict},
		{CodeCredentialInUse, KindCredentialInUse},
		{CodeProviderLinked, KindAlreadyLinked},
		{CodeNoSuchProvider, KindValidation},
		{CodeLastSignInMethod, KindValidation},
		{"SOMETHING_NEW", KindNetwork},
	}
	for _, tc := range cases {
		err := normalize("google.com", "a@x.com", &ProviderError{Code: tc.code})
		if err.Kind != tc.want {
			t.Errorf("normalize(%s) = %v, want %v", tc.code, err.Kind, tc.want)
		}
		if err.Provider != "google.com" || err.Email != "a@x.com" {
			t.Errorf("normalize(%s) perdió provider/email", tc.code)
		}
	}
}

func TestNormalizeTransportError(t *testing.T) {
	raw := fmt.Errorf("dial tcp: connection refused")
	err := normalize("github.com", "", raw)
	if err.Kind != KindNetwork {
		t.Fatalf("kind = %v, want network", err.Kind)
	}
	if !errors.Is(err, raw) {
		t.Fatal("debe envolver la causa original")
	}
}

func TestNormalizeCallbackError(t *testing.T) {
	cases := []struct {
		code string
		want Kind
	}{
		{"access_denied", KindUserCancelled},
		{"user_cancelled", KindUserCancelled},
		{"consent_required", KindUserCancelled},
		{"popup_blocked", KindPopupBlocked},
		{"interaction_required", KindPopupBlocked},
		{"server_error", KindNetwork},
		{"temporarily_unavailable", KindNetwork},
		{"whatever", KindNetwork},
	}
	for _, tc := range cases {
		if got := NormalizeCallbackError("google.com", tc.code, "").Kind; got != tc.want {
			t.Errorf("NormalizeCallbackError(%s) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestKindOfForeignError(t *testing.T) {
	if KindOf(errors.New("plain")) != "" {
		t.Fatal("error ajeno no debe tener kind")
	}
	if IsKind(nil, KindNetwork) {
		t.Fatal("nil no debe tener kind")
	}
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("boom")
	err := &Error{Kind: KindStoreUnavailable, Detail: "mongo down", cause: cause}
	if !errors.Is(err, cause) {
		t.Fatal("Unwrap debe exponer la causa")
	}
	var e *Error
	if !errors.As(fmt.Errorf("wrap: %w", err), &e) || e.Kind != KindStoreUnavailable {
		t.Fatal("errors.As debe extraer *Error a través de wraps")
	}
}

func TestStateSignerRoundTrip(t *testing.T) {
	s := &StateSigner{Secret: []byte("0123456789abcdef0123456789abcdef"), Issuer: "linguala", TTL: time.Minute}
	tok, err := s.Sign(StateClaims{FlowID: "f1", Provider: "google.com", Mode: "signin", Nonce: "n1"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	claims, err := s.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.FlowID != "f1" || claims.Provider != "google.com" || claims.Nonce != "n1" {
		t.Errorf("claims = %+v", claims)
	}

	other := &StateSigner{Secret: []byte("otra-clave-distinta-0123456789ab"), Issuer: "linguala", TTL: time.Minute}
	if _, err := other.Parse(tok); err == nil {
		t.Fatal("firma ajena debe rechazarse")
	}
	if _, err := s.Parse("no.es.jwt"); err == nil {
		t.Fatal("token malformado debe rechazarse")
	}
}
