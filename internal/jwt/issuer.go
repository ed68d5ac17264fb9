// Package jwt emite y valida los tokens de sesión del backend. HS256
// con secreto compartido: un solo servicio firma y valida.
package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/linguala/linguala/internal/domain/types"
)

// Audience de los tokens de sesión.
const Audience = "linguala-session"

// Errores de validación.
var (
	ErrTokenInvalid = errors.New("jwt: token inválido")
	ErrTokenExpired = errors.New("jwt: token expirado")
)

// SessionClaims son los claims de una sesión activa.
type SessionClaims struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"name,omitempty"`
	Role        string `json:"role"`
	// Provider es el método con el que se inició esta sesión.
	Provider string `json:"provider"`
	JTI      string `json:"jti"`
	IssuedAt time.Time
	Expires  time.Time
}

// Issuer firma tokens de sesión.
type Issuer struct {
	Secret    []byte
	Iss       string
	AccessTTL time.Duration // ej: 15m
}

// NewIssuer crea el Issuer con TTL por defecto de 15 minutos.
func NewIssuer(iss string, secret []byte) *Issuer {
	return &Issuer{Secret: secret, Iss: iss, AccessTTL: 15 * time.Minute}
}

// Sign emite un token de sesión para el usuario. Devuelve el token, su
// jti y el instante de expiración.
func (i *Issuer) Sign(u *types.UserIdentity, provider string) (string, string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.AccessTTL)
	jti := uuid.NewString()

	claims := jwtv5.MapClaims{
		"iss":      i.Iss,
		"aud":      Audience,
		"sub":      u.UID,
		"jti":      jti,
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"exp":      exp.Unix(),
		"uid":      u.UID,
		"email":    u.Email,
		"role":     u.Role,
		"provider": provider,
	}
	if u.DisplayName != "" {
		claims["name"] = u.DisplayName
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"
	signed, err := tk.SignedString(i.Secret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return signed, jti, exp, nil
}

// Parse valida firma, issuer, audiencia y expiración.
func (i *Issuer) Parse(tokenString string) (*SessionClaims, error) {
	tk, err := jwtv5.Parse(tokenString, func(*jwtv5.Token) (any, error) {
		return i.Secret, nil
	}, jwtv5.WithValidMethods([]string{"HS256"}))
	if err != nil || !tk.Valid {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	mc, ok := tk.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	if iss, _ := mc["iss"].(string); iss != i.Iss {
		return nil, ErrTokenInvalid
	}
	if aud, _ := mc["aud"].(string); aud != Audience {
		return nil, ErrTokenInvalid
	}

	out := &SessionClaims{
		UID:         str(mc, "uid"),
		Email:       str(mc, "email"),
		DisplayName: str(mc, "name"),
		Role:        str(mc, "role"),
		Provider:    str(mc, "provider"),
		JTI:         str(mc, "jti"),
	}
	if out.UID == "" {
		return nil, ErrTokenInvalid
	}
	if iat, ok := mc["iat"].(float64); ok {
		out.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	if exp, ok := mc["exp"].(float64); ok {
		out.Expires = time.Unix(int64(exp), 0).UTC()
	}
	return out, nil
}

func str(m jwtv5.MapClaims, k string) string {
	s, _ := m[k].(string)
	return s
}
