package email

import (
	"context"
	"fmt"

	"github.com/linguala/linguala/internal/domain/types"
)

// providerNames traduce el provider ID al nombre visible en el aviso.
var providerNames = map[string]string{
	types.ProviderPassword: "Email y contraseña",
	types.ProviderGoogle:   "Google",
	types.ProviderFacebook: "Facebook",
	types.ProviderGitHub:   "GitHub",
}

// LinkNotifier avisa por email cuando se vincula un método de acceso
// nuevo a una cuenta. Implementa reconcile.Notifier.
type LinkNotifier struct {
	Sender Sender
}

// NewLinkNotifier crea el notifier.
func NewLinkNotifier(s Sender) *LinkNotifier {
	return &LinkNotifier{Sender: s}
}

func (n *LinkNotifier) NotifyLinked(_ context.Context, to, displayName, providerID string) error {
	name := providerNames[providerID]
	if name == "" {
		name = providerID
	}
	greeting := "Hola"
	if displayName != "" {
		greeting = "Hola " + displayName
	}

	subject := fmt.Sprintf("Nuevo método de acceso vinculado: %s", name)
	text := fmt.Sprintf(
		"%s,\n\nSe vinculó %s como método de acceso a tu cuenta de Linguala.\n\n"+
			"Si no fuiste tú, cambia tu contraseña de inmediato.\n",
		greeting, name,
	)
	html := fmt.Sprintf(
		"<p>%s,</p><p>Se vinculó <strong>%s</strong> como método de acceso a tu cuenta de Linguala.</p>"+
			"<p>Si no fuiste tú, cambia tu contraseña de inmediato.</p>",
		greeting, name,
	)
	return n.Sender.Send(to, subject, html, text)
}
