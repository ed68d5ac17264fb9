// Package facebook implementa el cliente OAuth 2.0 de Facebook sobre la
// Graph API. Como GitHub, no hay id_token: el perfil se obtiene de /me.
package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/idp"
)

const (
	authEndpoint  = "https://www.facebook.com/v19.0/dialog/oauth"
	tokenEndpoint = "https://graph.facebook.com/v19.0/oauth/access_token"
	meEndpoint    = "https://graph.facebook.com/v19.0/me"
)

// Client es el cliente OAuth de Facebook.
type Client struct {
	clientID     string
	clientSecret string
	redirectURL  string
	scopes       []string

	http *http.Client
}

// New crea el cliente. Scopes por defecto: email y public_profile.
func New(clientID, clientSecret, redirectURL string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		scopes:       []string{"email", "public_profile"},
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) ProviderID() string { return types.ProviderFacebook }

// AuthURL construye la URL del diálogo de consentimiento.
func (c *Client) AuthURL(_ context.Context, state, _ string) (string, error) {
	u, _ := url.Parse(authEndpoint)
	q := u.Query()
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURL)
	q.Set("scope", strings.Join(c.scopes, ","))
	q.Set("state", state)
	q.Set("response_type", "code")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

type meResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// Exchange canjea el code y arma la identidad con el perfil de /me.
func (c *Client) Exchange(ctx context.Context, code, _ string) (*idp.SocialIdentity, error) {
	u, _ := url.Parse(tokenEndpoint)
	q := u.Query()
	q.Set("client_id", c.clientID)
	q.Set("client_secret", c.clientSecret)
	q.Set("redirect_uri", c.redirectURL)
	q.Set("code", code)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.Error != nil {
		return nil, fmt.Errorf("facebook oauth error: %s (%d)", tr.Error.Message, tr.Error.Code)
	}
	if tr.AccessToken == "" {
		return nil, errors.New("no access_token in response")
	}

	me, err := c.me(ctx, tr.AccessToken)
	if err != nil {
		return nil, err
	}
	if me.Email == "" {
		// Facebook omite el email si el usuario lo denegó o la cuenta
		// es solo teléfono. Sin email no hay reconciliación posible.
		return nil, errors.New("no email in facebook profile")
	}

	return &idp.SocialIdentity{
		ProviderID:    types.ProviderFacebook,
		Subject:       me.ID,
		Email:         me.Email,
		DisplayName:   me.Name,
		PhotoURL:      me.Picture.Data.URL,
		AccessToken:   tr.AccessToken,
		EmailVerified: true,
	}, nil
}

func (c *Client) me(ctx context.Context, accessToken string) (*meResponse, error) {
	u, _ := url.Parse(meEndpoint)
	q := u.Query()
	q.Set("fields", "id,name,email,picture.type(large)")
	q.Set("access_token", accessToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("facebook graph error: status %d", resp.StatusCode)
	}
	var me meResponse
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &me, nil
}
