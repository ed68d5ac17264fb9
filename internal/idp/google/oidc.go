// Package google implementa el cliente OIDC de Google para el gateway de
// identidad. Valida id_tokens contra el JWKS publicado por discovery.
package google

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/idp"
)

const discoveryURL = "https://accounts.google.com/.well-known/openid-configuration"

type discoveryDoc struct {
	Issuer        string `json:"issuer"`
	AuthEndpoint  string `json:"authorization_endpoint"`
	TokenEndpoint string `json:"token_endpoint"`
	JWKSURI       string `json:"jwks_uri"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// Client es el cliente OIDC de Google. Cachea discovery 24h y JWKS 1h.
type Client struct {
	clientID     string
	clientSecret string
	redirectURL  string
	scopes       []string

	http  *http.Client
	mu    sync.RWMutex
	disc  *discoveryDoc
	discU time.Time

	keys     *jwks
	keysAt   time.Time
	keysETag string
}

// New crea el cliente. Scopes por defecto: openid, email, profile.
func New(clientID, clientSecret, redirectURL string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		scopes:       []string{"openid", "email", "profile"},
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) ProviderID() string { return types.ProviderGoogle }

func (c *Client) discovery(ctx context.Context) (*discoveryDoc, error) {
	c.mu.RLock()
	disc := c.disc
	stale := time.Since(c.discU) > 24*time.Hour
	c.mu.RUnlock()
	if disc != nil && !stale {
		return disc, nil
	}
	req, _ := http.NewRequestWithContext(ctx, "GET", discoveryURL, nil)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var dd discoveryDoc
	if err := json.NewDecoder(resp.Body).Decode(&dd); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.disc = &dd
	c.discU = time.Now()
	c.mu.Unlock()
	return &dd, nil
}

func (c *Client) getJWKS(ctx context.Context, uri string) (*jwks, error) {
	c.mu.RLock()
	j := c.keys
	age := time.Since(c.keysAt)
	c.mu.RUnlock()
	if j != nil && age < time.Hour {
		return j, nil
	}

	req, _ := http.NewRequestWithContext(ctx, "GET", uri, nil)
	if c.keysETag != "" {
		req.Header.Set("If-None-Match", c.keysETag)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		c.mu.Lock()
		out := c.keys
		c.keysAt = time.Now()
		c.mu.Unlock()
		return out, nil
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("jwks http %d", resp.StatusCode)
	}
	var jj jwks
	if err := json.NewDecoder(resp.Body).Decode(&jj); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.keys = &jj
	c.keysAt = time.Now()
	c.keysETag = resp.Header.Get("ETag")
	c.mu.Unlock()
	return &jj, nil
}

func (c *Client) rsaKeyForKid(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	disc, err := c.discovery(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := c.getJWKS(ctx, disc.JWKSURI)
	if err != nil {
		return nil, err
	}
	for _, k := range keys.Keys {
		if k.Kid == kid && strings.EqualFold(k.Kty, "RSA") {
			nb, err := base64.RawURLEncoding.DecodeString(k.N)
			if err != nil {
				return nil, err
			}
			eb, err := base64.RawURLEncoding.DecodeString(k.E)
			if err != nil {
				return nil, err
			}
			n := new(big.Int).SetBytes(nb)
			e := 0
			for _, b := range eb {
				e = (e << 8) | int(b)
			}
			if e == 0 {
				e = 65537
			}
			return &rsa.PublicKey{N: n, E: e}, nil
		}
	}
	return nil, errors.New("kid not found")
}

// AuthURL construye la URL de autorización.
func (c *Client) AuthURL(ctx context.Context, state, nonce string) (string, error) {
	disc, err := c.discovery(ctx)
	if err != nil {
		return "", err
	}
	u, _ := url.Parse(disc.AuthEndpoint)
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURL)
	q.Set("scope", strings.Join(c.scopes, " "))
	q.Set("state", state)
	q.Set("nonce", nonce)
	q.Set("prompt", "select_account")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Exchange canjea el code, valida el id_token y devuelve la identidad.
func (c *Client) Exchange(ctx context.Context, code, nonce string) (*idp.SocialIdentity, error) {
	disc, err := c.discovery(ctx)
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("redirect_uri", c.redirectURL)

	req, _ := http.NewRequestWithContext(ctx, "POST", disc.TokenEndpoint, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		var b struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&b)
		return nil, fmt.Errorf("token http %d: %s %s", resp.StatusCode, b.Error, b.ErrorDescription)
	}
	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, err
	}
	if tr.IDToken == "" {
		return nil, errors.New("no id_token in response")
	}

	claims, err := c.verifyIDToken(ctx, tr.IDToken, nonce)
	if err != nil {
		return nil, err
	}

	return &idp.SocialIdentity{
		ProviderID:    types.ProviderGoogle,
		Subject:       claims.Sub,
		Email:         claims.Email,
		DisplayName:   claims.Name,
		PhotoURL:      claims.Picture,
		AccessToken:   tr.AccessToken,
		IDToken:       tr.IDToken,
		EmailVerified: claims.EmailVerified,
	}, nil
}

type idClaims struct {
	Sub           string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// verifyIDToken valida firma, iss, aud, nonce y exp.
func (c *Client) verifyIDToken(ctx context.Context, idToken, expectedNonce string) (*idClaims, error) {
	var header struct {
		Alg string `json:"alg"`
		Kid string `json:"kid"`
	}
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return nil, errors.New("bad jwt format")
	}
	hb, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(hb, &header); err != nil {
		return nil, err
	}
	if header.Alg != "RS256" {
		return nil, fmt.Errorf("unexpected alg: %s", header.Alg)
	}

	key, err := c.rsaKeyForKid(ctx, header.Kid)
	if err != nil {
		return nil, err
	}
	tok, err := jwtv5.Parse(idToken, func(*jwtv5.Token) (any, error) { return key, nil },
		jwtv5.WithValidMethods([]string{"RS256"}))
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid id_token")
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, errors.New("claims type")
	}

	iss, _ := claims["iss"].(string)
	if iss != "https://accounts.google.com" && iss != "accounts.google.com" {
		return nil, fmt.Errorf("bad iss: %s", iss)
	}
	audOK := false
	switch a := claims["aud"].(type) {
	case string:
		audOK = a == c.clientID
	case []any:
		for _, v := range a {
			if s, _ := v.(string); s == c.clientID {
				audOK = true
				break
			}
		}
	}
	if !audOK {
		return nil, errors.New("bad aud")
	}
	if expectedNonce != "" {
		if got, _ := claims["nonce"].(string); got != expectedNonce {
			return nil, errors.New("bad nonce")
		}
	}
	if expf, ok := claims["exp"].(float64); ok {
		if time.Unix(int64(expf), 0).Before(time.Now().Add(-30 * time.Second)) {
			return nil, errors.New("token expired")
		}
	}

	return &idClaims{
		Sub:           strClaim(claims, "sub"),
		Email:         strClaim(claims, "email"),
		EmailVerified: boolClaim(claims, "email_verified"),
		Name:          strClaim(claims, "name"),
		Picture:       strClaim(claims, "picture"),
	}, nil
}

func strClaim(m jwtv5.MapClaims, k string) string {
	s, _ := m[k].(string)
	return s
}

func boolClaim(m jwtv5.MapClaims, k string) bool {
	b, _ := m[k].(bool)
	return b
}
