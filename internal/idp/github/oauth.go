// Package github implementa el cliente OAuth 2.0 de GitHub. GitHub no
// emite id_tokens: el perfil se obtiene con una llamada adicional a la
// API, y el email puede requerir el endpoint /user/emails.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/idp"
)

const (
	authEndpoint  = "https://github.com/login/oauth/authorize"
	tokenEndpoint = "https://github.com/login/oauth/access_token"
	userEndpoint  = "https://api.github.com/user"
	emailEndpoint = "https://api.github.com/user/emails"
)

// Client es el cliente OAuth de GitHub.
type Client struct {
	clientID     string
	clientSecret string
	redirectURL  string
	scopes       []string

	http *http.Client
}

// New crea el cliente. Scopes por defecto: read:user y user:email.
func New(clientID, clientSecret, redirectURL string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		scopes:       []string{"read:user", "user:email"},
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) ProviderID() string { return types.ProviderGitHub }

// AuthURL construye la URL de autorización. GitHub no soporta nonce; el
// nonce viaja dentro del state firmado.
func (c *Client) AuthURL(_ context.Context, state, _ string) (string, error) {
	u, _ := url.Parse(authEndpoint)
	q := u.Query()
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURL)
	q.Set("scope", strings.Join(c.scopes, " "))
	q.Set("state", state)
	q.Set("allow_signup", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Error       string `json:"error,omitempty"`
	ErrorDesc   string `json:"error_description,omitempty"`
}

type userInfo struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type emailInfo struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Exchange canjea el code por un access token y arma la identidad con el
// perfil de la API.
func (c *Client) Exchange(ctx context.Context, code, _ string) (*idp.SocialIdentity, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", c.redirectURL)

	req, err := http.NewRequestWithContext(ctx, "POST", tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
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
	if tr.Error != "" {
		return nil, fmt.Errorf("github oauth error: %s - %s", tr.Error, tr.ErrorDesc)
	}
	if tr.AccessToken == "" {
		return nil, errors.New("no access_token in response")
	}

	info, err := c.userWithEmail(ctx, tr.AccessToken)
	if err != nil {
		return nil, err
	}

	display := info.Name
	if display == "" {
		display = info.Login
	}
	return &idp.SocialIdentity{
		ProviderID:    types.ProviderGitHub,
		Subject:       strconv.FormatInt(info.ID, 10),
		Email:         info.Email,
		DisplayName:   display,
		PhotoURL:      info.AvatarURL,
		Username:      info.Login,
		AccessToken:   tr.AccessToken,
		EmailVerified: true,
	}, nil
}

func (c *Client) apiGet(ctx context.Context, endpoint, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api error: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// userWithEmail obtiene el perfil y garantiza un email. Algunos usuarios
// lo tienen privado y solo aparece en /user/emails.
func (c *Client) userWithEmail(ctx context.Context, accessToken string) (*userInfo, error) {
	var info userInfo
	if err := c.apiGet(ctx, userEndpoint, accessToken, &info); err != nil {
		return nil, err
	}
	if info.Email != "" {
		return &info, nil
	}

	var emails []emailInfo
	if err := c.apiGet(ctx, emailEndpoint, accessToken, &emails); err != nil {
		return nil, fmt.Errorf("failed to get email: %w", err)
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			info.Email = e.Email
			return &info, nil
		}
	}
	for _, e := range emails {
		if e.Verified {
			info.Email = e.Email
			return &info, nil
		}
	}
	if len(emails) > 0 {
		info.Email = emails[0].Email
		return &info, nil
	}
	return nil, errors.New("no email found")
}
