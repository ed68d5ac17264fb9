package email

import (
	"context"
	"strings"
	"testing"

	"github.com/linguala/linguala/internal/domain/types"
)

type captureSender struct {
	to, subject, html, text string
}

func (c *captureSender) Send(to, subject, htmlBody, textBody string) error {
	c.to, c.subject, c.html, c.text = to, subject, htmlBody, textBody
	return nil
}

func TestNotifyLinked(t *testing.T) {
	cap := &captureSender{}
	n := NewLinkNotifier(cap)

	err := n.NotifyLinked(context.Background(), "ana@example.com", "Ana", types.ProviderGoogle)
	if err != nil {
		t.Fatalf("NotifyLinked: %v", err)
	}
	if cap.to != "ana@example.com" {
		t.Errorf("to = %q", cap.to)
	}
	if !strings.Contains(cap.subject, "Google") {
		t.Errorf("subject = %q", cap.subject)
	}
	if !strings.Contains(cap.text, "Hola Ana") || !strings.Contains(cap.html, "Google") {
		t.Errorf("cuerpos: %q / %q", cap.text, cap.html)
	}
}

func TestNotifyLinkedUnknownProvider(t *testing.T) {
	cap := &captureSender{}
	n := NewLinkNotifier(cap)

	if err := n.NotifyLinked(context.Background(), "a@x.com", "", "apple.com"); err != nil {
		t.Fatalf("NotifyLinked: %v", err)
	}
	if !strings.Contains(cap.subject, "apple.com") {
		t.Errorf("subject = %q", cap.subject)
	}
	if !strings.Contains(cap.text, "Hola,") {
		t.Errorf("saludo sin nombre: %q", cap.text)
	}
}
