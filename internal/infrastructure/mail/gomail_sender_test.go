package mail_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	appbilling "github.com/jhoicas/appgestion-api/internal/application/billing"
	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/infrastructure/mail"
)

func sampleMail() appbilling.Mail {
	return appbilling.Mail{
		To:             "ana@example.com",
		Subject:        "Factura FAC-2026-0001 - Ana",
		HTMLBody:       "<p>Adjunto encontrará la factura correspondiente.</p>",
		AttachmentName: "factura-FAC-2026-0001.pdf",
		Attachment:     []byte("%PDF-1.3 fake"),
	}
}

func TestBuildMessage(t *testing.T) {
	var buf bytes.Buffer
	_, err := mail.BuildMessage("yo@empresa.es", sampleMail()).WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "From: yo@empresa.es")
	assert.Contains(t, raw, "To: ana@example.com")
	assert.Contains(t, raw, "Subject: Factura FAC-2026-0001 - Ana")
	assert.Contains(t, raw, `filename="factura-FAC-2026-0001.pdf"`)
	assert.Contains(t, raw, "application/pdf")
}

func TestSend_AplicaDefaultsDeCuenta(t *testing.T) {
	var got entity.MailSettings
	sender := mail.NewGomailSender().WithDialer(func(acc entity.MailSettings, _ *gomail.Message) error {
		got = acc
		return nil
	})

	err := sender.Send(context.Background(), entity.MailSettings{Username: "yo@empresa.es", Password: "x"}, sampleMail())
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultMailHost, got.Host)
	assert.Equal(t, entity.DefaultMailPort, got.Port)
}

func TestSend_ErrorSMTP(t *testing.T) {
	sender := mail.NewGomailSender().WithDialer(func(entity.MailSettings, *gomail.Message) error {
		return errors.New("535 authentication failed")
	})

	err := sender.Send(context.Background(), entity.MailSettings{Username: "yo", Password: "x"}, sampleMail())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ana@example.com")
	assert.Contains(t, err.Error(), "535")
}
