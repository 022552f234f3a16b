package mail

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/eduprompt/eduprompt/internal/pkg/env"
)

// SMTPMailer sends emails via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// SendActivationMail sends the account activation link to a new user.
func SendActivationMail(to string, name string, token string) error {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}
	link := fmt.Sprintf("%s/activate?token=%s", base, token)

	body := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>welcome to EduPrompt! Please confirm your email address to activate your account:</p>"+
			"<p><a href=\"%s\">%s</a></p>"+
			"<p>If you did not register, you can ignore this email.</p>",
		name, link, link,
	)

	return SendMail(to, "Activate your EduPrompt account", body)
}

// SendPaymentReceiptMail sends a receipt after a successful checkout.
func SendPaymentReceiptMail(to string, name string, tierName string, amountVND string, transactionNo string) error {
	body := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>thanks for upgrading to the <strong>%s</strong> plan.</p>"+
			"<p>Amount: %s<br>Transaction: %s</p>"+
			"<p>Your new plan is active immediately.</p>",
		name, tierName, amountVND, transactionNo,
	)

	return SendMail(to, "Your EduPrompt receipt", body)
}
