// Package dev provee un AccountAPI en proceso para desarrollo y tests.
// Replica la semántica del servicio de cuentas gestionadas (errores por
// código crudo incluidos) sin red ni persistencia.
package dev

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/idp"
	"github.com/linguala/linguala/internal/security/password"
)

type account struct {
	uid         string
	email       string
	displayName string
	photoURL    string
	username    string
	hash        string
	// providers mapea provider ID al subject federado ("" para password).
	providers map[string]string
	disabled  bool
}

// Provider es el backend de cuentas en memoria.
type Provider struct {
	mu      sync.Mutex
	byUID   map[string]*account
	byEmail map[string]*account
}

// New crea un Provider vacío.
func New() *Provider {
	return &Provider{
		byUID:   make(map[string]*account),
		byEmail: make(map[string]*account),
	}
}

func perr(code string) error { return &idp.ProviderError{Code: code} }

func (p *Provider) profileOf(a *account, providerID string) *idp.Profile {
	return &idp.Profile{
		UID:           a.uid,
		Email:         a.email,
		DisplayName:   a.displayName,
		PhotoURL:      a.photoURL,
		ProviderID:    providerID,
		Username:      a.username,
		EmailVerified: true,
	}
}

func (p *Provider) SignIn(_ context.Context, email, pass string) (*idp.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.byEmail[email]
	if !ok {
		return nil, perr(idp.CodeEmailNotFound)
	}
	if a.disabled {
		return nil, perr(idp.CodeUserDisabled)
	}
	if _, has := a.providers[types.ProviderPassword]; !has || !password.Verify(pass, a.hash) {
		return nil, perr(idp.CodeInvalidPassword)
	}
	return p.profileOf(a, types.ProviderPassword), nil
}

func (p *Provider) SignUp(_ context.Context, email, pass, displayName string) (*idp.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.byEmail[email]; exists {
		return nil, perr(idp.CodeEmailExists)
	}
	hash, err := password.Hash(password.Default, pass)
	if err != nil {
		return nil, err
	}
	a := &account{
		uid:         uuid.NewString(),
		email:       email,
		displayName: displayName,
		hash:        hash,
		providers:   map[string]string{types.ProviderPassword: ""},
	}
	p.byUID[a.uid] = a
	p.byEmail[email] = a
	return p.profileOf(a, types.ProviderPassword), nil
}

func (p *Provider) SignInWithIDP(_ context.Context, as idp.IDPAssertion) (*idp.Profile, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	owner := p.ownerOf(as.ProviderID, as.Subject)

	// Modo vinculación: la cuenta destino ya está autenticada.
	if as.LinkUID != "" {
		a, ok := p.byUID[as.LinkUID]
		if !ok {
			return nil, false, perr(idp.CodeEmailNotFound)
		}
		if owner != nil && owner != a {
			return nil, false, perr(idp.CodeCredentialInUse)
		}
		if _, linked := a.providers[as.ProviderID]; linked {
			return nil, false, perr(idp.CodeProviderLinked)
		}
		a.providers[as.ProviderID] = as.Subject
		p.absorb(a, as)
		return p.profileOf(a, as.ProviderID), false, nil
	}

	// Modo acceso: primero por identidad federada exacta.
	if owner != nil {
		if owner.disabled {
			return nil, false, perr(idp.CodeUserDisabled)
		}
		p.absorb(owner, as)
		return p.profileOf(owner, as.ProviderID), false, nil
	}

	// El email ya existe con otros métodos: conflicto, no auto-merge.
	if _, exists := p.byEmail[as.Email]; exists {
		return nil, false, perr(idp.CodeNeedConfirmation)
	}

	// Cuenta nueva.
	a := &account{
		uid:         uuid.NewString(),
		email:       as.Email,
		displayName: as.DisplayName,
		photoURL:    as.PhotoURL,
		username:    as.Username,
		providers:   map[string]string{as.ProviderID: as.Subject},
	}
	p.byUID[a.uid] = a
	p.byEmail[a.email] = a
	return p.profileOf(a, as.ProviderID), true, nil
}

func (p *Provider) SignInMethods(_ context.Context, email string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.byEmail[email]
	if !ok {
		return []string{}, nil
	}
	methods := make([]string, 0, len(a.providers))
	for id := range a.providers {
		methods = append(methods, id)
	}
	return methods, nil
}

func (p *Provider) Unlink(_ context.Context, uid, providerID string) (*idp.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.byUID[uid]
	if !ok {
		return nil, perr(idp.CodeEmailNotFound)
	}
	if _, linked := a.providers[providerID]; !linked {
		return nil, perr(idp.CodeNoSuchProvider)
	}
	if len(a.providers) == 1 {
		return nil, perr(idp.CodeLastSignInMethod)
	}
	delete(a.providers, providerID)
	return p.profileOf(a, ""), nil
}

// Disable marca la cuenta como deshabilitada. Solo para tests.
func (p *Provider) Disable(uid string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if a, ok := p.byUID[uid]; ok {
		a.disabled = true
	}
}

// ownerOf busca la cuenta dueña de una identidad federada exacta.
func (p *Provider) ownerOf(providerID, subject string) *account {
	if subject == "" {
		return nil
	}
	for _, a := range p.byUID {
		if s, ok := a.providers[providerID]; ok && s == subject {
			return a
		}
	}
	return nil
}

// absorb completa campos de perfil vacíos con lo que reporta el provider.
func (p *Provider) absorb(a *account, as idp.IDPAssertion) {
	if a.displayName == "" && as.DisplayName != "" {
		a.displayName = as.DisplayName
	}
	if a.photoURL == "" && as.PhotoURL != "" {
		a.photoURL = as.PhotoURL
	}
	if a.username == "" && as.Username != "" {
		a.username = as.Username
	}
}
