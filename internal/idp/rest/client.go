// Package rest es el cliente HTTP del servicio de cuentas gestionadas.
// Los fallos del servicio llegan como códigos crudos en el cuerpo de
// error; aquí se convierten en ProviderError para que el gateway los
// normalice.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/linguala/linguala/internal/idp"
)

// Client habla con el servicio de cuentas.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New crea el cliente. baseURL sin slash final.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type accountPayload struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	Username    string `json:"username,omitempty"`
	IsNewUser   bool   `json:"isNewUser,omitempty"`
}

type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// post envía el request y decodifica la respuesta u obtiene el código
// crudo del cuerpo de error.
func (c *Client) post(ctx context.Context, op string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/v1/accounts:%s?key=%s", c.baseURL, op, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var eb errorBody
		if derr := json.NewDecoder(resp.Body).Decode(&eb); derr != nil || eb.Error.Message == "" {
			return fmt.Errorf("accounts api: http %d", resp.StatusCode)
		}
		// El mensaje puede traer detalle tras " : ".
		code, detail, _ := strings.Cut(eb.Error.Message, " : ")
		return &idp.ProviderError{Code: strings.TrimSpace(code), Message: strings.TrimSpace(detail)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func toProfile(a *accountPayload, providerID string) *idp.Profile {
	return &idp.Profile{
		UID:         a.LocalID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		PhotoURL:    a.PhotoURL,
		ProviderID:  providerID,
		Username:    a.Username,
	}
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*idp.Profile, error) {
	var out accountPayload
	in := map[string]any{"email": email, "password": password}
	if err := c.post(ctx, "signInWithPassword", in, &out); err != nil {
		return nil, err
	}
	return toProfile(&out, "password"), nil
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*idp.Profile, error) {
	var out accountPayload
	in := map[string]any{"email": email, "password": password, "displayName": displayName}
	if err := c.post(ctx, "signUp", in, &out); err != nil {
		return nil, err
	}
	return toProfile(&out, "password"), nil
}

func (c *Client) SignInWithIDP(ctx context.Context, as idp.IDPAssertion) (*idp.Profile, bool, error) {
	var out accountPayload
	in := map[string]any{
		"providerId":  as.ProviderID,
		"subject":     as.Subject,
		"accessToken": as.AccessToken,
		"idToken":     as.IDToken,
		"email":       as.Email,
		"displayName": as.DisplayName,
		"photoUrl":    as.PhotoURL,
		"username":    as.Username,
	}
	if as.LinkUID != "" {
		in["linkLocalId"] = as.LinkUID
	}
	if err := c.post(ctx, "signInWithIdp", in, &out); err != nil {
		return nil, false, err
	}
	return toProfile(&out, as.ProviderID), out.IsNewUser, nil
}

func (c *Client) SignInMethods(ctx context.Context, email string) ([]string, error) {
	var out struct {
		SigninMethods []string `json:"signinMethods"`
		Registered    bool     `json:"registered"`
	}
	in := map[string]any{"identifier": email}
	if err := c.post(ctx, "createAuthUri", in, &out); err != nil {
		return nil, err
	}
	if out.SigninMethods == nil {
		return []string{}, nil
	}
	return out.SigninMethods, nil
}

func (c *Client) Unlink(ctx context.Context, uid, providerID string) (*idp.Profile, error) {
	var out accountPayload
	in := map[string]any{"localId": uid, "deleteProvider": []string{providerID}}
	if err := c.post(ctx, "update", in, &out); err != nil {
		return nil, err
	}
	return toProfile(&out, ""), nil
}
