package idp

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// StateClaims viaja firmado en el parámetro state del flujo federado.
// Atar flow, provider y modo al token impide que un callback responda a
// un flujo distinto del que lo originó.
type StateClaims struct {
	FlowID   string `json:"flow"`
	Provider string `json:"provider"`
	Mode     string `json:"mode"`
	UID      string `json:"uid,omitempty"`
	Nonce    string `json:"nonce"`
}

// StateAudience es la audiencia esperada de los tokens de state.
const StateAudience = "social-state"

// Errores de validación de state.
var (
	ErrStateInvalid  = errors.New("invalid state token")
	ErrStateExpired  = errors.New("state token expired")
	ErrStateAudience = errors.New("state audience mismatch")
)

// StateSigner firma y valida el state de los flujos federados.
type StateSigner struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// Sign firma los claims como JWT HS256.
func (s *StateSigner) Sign(claims StateClaims) (string, error) {
	now := time.Now().UTC()
	mapClaims := jwtv5.MapClaims{
		"iss":      s.Issuer,
		"aud":      StateAudience,
		"exp":      now.Add(s.TTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"flow":     claims.FlowID,
		"provider": claims.Provider,
		"mode":     claims.Mode,
		"nonce":    claims.Nonce,
	}
	if claims.UID != "" {
		mapClaims["uid"] = claims.UID
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, mapClaims)
	return tk.SignedString(s.Secret)
}

// Parse valida firma, issuer, audiencia y expiración.
func (s *StateSigner) Parse(tokenString string) (*StateClaims, error) {
	tk, err := jwtv5.Parse(tokenString, func(*jwtv5.Token) (any, error) {
		return s.Secret, nil
	}, jwtv5.WithValidMethods([]string{"HS256"}))
	if err != nil || !tk.Valid {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrStateExpired
		}
		return nil, ErrStateInvalid
	}

	mapClaims, ok := tk.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrStateInvalid
	}

	if iss, _ := mapClaims["iss"].(string); iss != s.Issuer {
		return nil, ErrStateInvalid
	}
	if aud, _ := mapClaims["aud"].(string); aud != StateAudience {
		return nil, ErrStateAudience
	}

	claims := &StateClaims{
		FlowID:   getString(mapClaims, "flow"),
		Provider: getString(mapClaims, "provider"),
		Mode:     getString(mapClaims, "mode"),
		UID:      getString(mapClaims, "uid"),
		Nonce:    getString(mapClaims, "nonce"),
	}
	if claims.FlowID == "" || claims.Provider == "" {
		return nil, ErrStateInvalid
	}
	return claims, nil
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
