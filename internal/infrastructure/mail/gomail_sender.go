// Package mail envía los documentos por SMTP con la cuenta configurada por cada usuario.
package mail

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	appbilling "github.com/jhoicas/appgestion-api/internal/application/billing"
	"github.com/jhoicas/appgestion-api/internal/domain/entity"
)

var _ appbilling.Mailer = (*GomailSender)(nil)

// DialFunc entrega el mensaje al servidor SMTP de la cuenta.
type DialFunc func(account entity.MailSettings, msg *gomail.Message) error

// GomailSender implementa billing.Mailer con gomail.
type GomailSender struct {
	dial DialFunc
}

// NewGomailSender construye el sender que conecta por SMTP (STARTTLS en el 587).
func NewGomailSender() *GomailSender {
	return &GomailSender{dial: dialAndSend}
}

// WithDialer sustituye la entrega SMTP (tests).
func (s *GomailSender) WithDialer(dial DialFunc) *GomailSender {
	s.dial = dial
	return s
}

// Send compone el mensaje con el PDF adjunto y lo envía con la cuenta del usuario.
func (s *GomailSender) Send(ctx context.Context, account entity.MailSettings, msg appbilling.Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	account = account.WithDefaults()
	if err := s.dial(account, BuildMessage(account.Username, msg)); err != nil {
		return fmt.Errorf("mail: enviar a %s: %w", msg.To, err)
	}
	return nil
}

// BuildMessage arma el mensaje MIME: cuerpo HTML y adjunto PDF.
func BuildMessage(from string, msg appbilling.Mail) *gomail.Message {
	m := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)
	if len(msg.Attachment) > 0 {
		data := msg.Attachment
		m.Attach(msg.AttachmentName,
			gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		)
	}
	return m
}

func dialAndSend(account entity.MailSettings, msg *gomail.Message) error {
	d := gomail.NewDialer(account.Host, account.Port, account.Username, account.Password)
	return d.DialAndSend(msg)
}
