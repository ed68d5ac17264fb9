package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/linguala/linguala/internal/domain/types"
)

func testUser() *types.UserIdentity {
	return &types.UserIdentity{
		UID:         "u1",
		Email:       "ana@example.com",
		DisplayName: "Ana García",
		Role:        types.RoleUser,
	}
}

func TestSignAndParse(t *testing.T) {
	iss := NewIssuer("linguala", []byte("0123456789abcdef0123456789abcdef"))

	tok, jti, exp, err := iss.Sign(testUser(), types.ProviderGoogle)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if jti == "" || exp.Before(time.Now()) {
		t.Fatalf("jti = %q, exp = %v", jti, exp)
	}

	claims, err := iss.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UID != "u1" || claims.Email != "ana@example.com" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Provider != types.ProviderGoogle {
		t.Errorf("provider = %q", claims.Provider)
	}
	if claims.JTI != jti {
		t.Errorf("jti = %q, want %q", claims.JTI, jti)
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	a := NewIssuer("linguala", []byte("0123456789abcdef0123456789abcdef"))
	b := NewIssuer("linguala", []byte("otra-clave-distinta-0123456789ab"))

	tok, _, _, err := a.Sign(testUser(), types.ProviderPassword)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := b.Parse(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestParseExpired(t *testing.T) {
	iss := NewIssuer("linguala", []byte("0123456789abcdef0123456789abcdef"))
	iss.AccessTTL = -time.Minute

	tok, _, _, err := iss.Sign(testUser(), types.ProviderPassword)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := iss.Parse(tok); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestParseWrongIssuer(t *testing.T) {
	a := NewIssuer("linguala", []byte("0123456789abcdef0123456789abcdef"))
	b := NewIssuer("otro-servicio", a.Secret)

	tok, _, _, err := a.Sign(testUser(), types.ProviderPassword)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := b.Parse(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}
