package services

import (
	"context"
	"fmt"
	"net/smtp"

	"storefront_pay/internal/config"
	"storefront_pay/internal/models"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService sends plain-text receipts over SMTP
type EmailService struct {
	cfg      config.SMTP
	sendMail sendMailFunc
}

func NewEmailService(cfg config.SMTP) *EmailService {
	return &EmailService{cfg: cfg, sendMail: smtp.SendMail}
}

// Configured reports whether enough SMTP settings are present to send mail
func (s *EmailService) Configured() bool {
	return s.cfg.Host != "" && s.cfg.Port != "" && s.cfg.User != "" && s.cfg.Password != ""
}

func (s *EmailService) SendEmail(to []string, subject, body string) error {
	if !s.Configured() {
		return fmt.Errorf("SMTP credentials not fully configured")
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	from := s.cfg.From
	if from == "" {
		from = s.cfg.User
	}
	message := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", from, to[0], subject, body))

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	if err := s.sendMail(s.cfg.Host+":"+s.cfg.Port, auth, from, to, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendReceipt mails the receipt when the customer left an email address
func (s *EmailService) SendReceipt(_ context.Context, txn models.Transaction) error {
	if txn.CustomerEmail == "" {
		return nil
	}
	return s.SendEmail([]string{txn.CustomerEmail}, receiptSubject(txn), receiptText(txn))
}
