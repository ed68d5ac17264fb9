// Package email envía las notificaciones del servicio por SMTP. Hoy la
// única notificación es el aviso de vinculación de un método nuevo.
package email

import (
	"crypto/tls"

	mail "github.com/go-mail/mail"

	"github.com/linguala/linguala/internal/observability/logger"
)

// Sender envía un email con cuerpo HTML y texto plano.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// SMTPSender implementa Sender usando SMTP.
type SMTPSender struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool
}

// NewSMTPSender crea un SMTPSender con TLS automático.
func NewSMTPSender(host string, port int, from, user, pass string) *SMTPSender {
	return &SMTPSender{
		Host:    host,
		Port:    port,
		From:    from,
		User:    user,
		Pass:    pass,
		TLSMode: "auto",
	}
}

// Send envía el mensaje como multipart/alternative cuando hay ambas
// representaciones.
func (s *SMTPSender) Send(to, subject, htmlBody, textBody string) error {
	log := logger.L().With(
		logger.Component("email.smtp"),
		logger.String("host", s.Host),
		logger.Int("port", s.Port),
	)

	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)

	if textBody != "" {
		m.SetBody("text/plain", textBody)
	}
	if htmlBody != "" {
		if textBody == "" {
			m.SetBody("text/html", htmlBody)
		} else {
			m.AddAlternative("text/html", htmlBody)
		}
	}

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify, // solo dev
	}
	switch s.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: s.InsecureSkipVerify}
	default:
		// "auto"/"starttls": go-mail negocia STARTTLS si corresponde
	}

	if err := d.DialAndSend(m); err != nil {
		log.Error("envío de email falló", logger.Err(err))
		return err
	}
	log.Debug("email enviado", logger.String("subject", subject))
	return nil
}

// NoopSender descarta los mensajes. Para desarrollo sin SMTP.
type NoopSender struct{}

func (NoopSender) Send(to, subject, _, _ string) error {
	logger.L().Debug("email descartado (noop)",
		logger.Component("email.noop"),
		logger.String("to", to),
		logger.String("subject", subject),
	)
	return nil
}
