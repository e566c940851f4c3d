package services

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/resendlabs/resend-go"
)

// EmailService delivers login codes through resend. It satisfies CodeSender;
// the auth core never talks to the mail transport directly.
type EmailService struct {
	client    *resend.Client
	fromEmail string
}

func NewEmailService() (*EmailService, error) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable not set")
	}

	fromEmail := os.Getenv("FROM_EMAIL")
	if fromEmail == "" {
		fromEmail = "noreply@gestionhq.com"
	}

	client := resend.NewClient(apiKey)

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
	}, nil
}

func (s *EmailService) SendLoginCode(ctx context.Context, to, code, displayName string) error {
	if displayName == "" {
		displayName = to
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: "Token de Acceso - Sistema de Gestión de Usuarios",
		Html: fmt.Sprintf(`
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Token de Acceso</h2>
				<p>Hola %s,</p>
				<p>Has solicitado acceso al sistema. Utiliza el siguiente token para iniciar sesión:</p>
				<div style="background-color: #f4f4f4; padding: 20px; text-align: center; font-size: 32px; font-weight: bold; letter-spacing: 8px; margin: 20px 0; font-family: monospace;">
					%s
				</div>
				<p style="color: #666;">Este token es válido por 15 minutos y solo puede usarse una vez.</p>
				<p style="color: #666;">Si no solicitaste este acceso, ignora este email.</p>
				<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
				<p style="color: #999; font-size: 12px;">Sistema de Gestión de Usuarios</p>
			</div>
		`, displayName, code),
	}

	// The resend client has no context-aware send; run it on the side so the
	// caller's timeout still bounds the wait. A timed-out send may still
	// deliver, which matches the documented at-least-zero-delivery semantic.
	done := make(chan error, 1)
	go func() {
		_, err := s.client.Emails.Send(params)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DemoSender logs codes instead of sending email. Used in local development
// (EMAIL_MODE=demo) where no mail transport is configured.
type DemoSender struct{}

func (DemoSender) SendLoginCode(_ context.Context, to, code, _ string) error {
	log.Printf("[email-demo] login code for %s: %s", to, code)
	return nil
}
