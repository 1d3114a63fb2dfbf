package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/RefTrackApp/RefTrack/app/models"
	"github.com/RefTrackApp/RefTrack/internal/pkg/env"
)

// SendMail sends an HTML email via SMTP
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

// SendPayoutApprovedMail notifies an affiliate that a payout run covering
// their commissions was approved. Errors are returned so callers can log
// them, but a failed mail never rolls back the payout itself.
func SendPayoutApprovedMail(affiliate *models.Affiliate, run *models.PayoutRun, amount float64) error {
	if affiliate.Email == "" {
		return nil
	}

	subject := fmt.Sprintf("Your payout of %.2f %s is on its way", amount, run.Currency)
	body := fmt.Sprintf(
		"<p>Hello %s,</p>"+
			"<p>your commissions from %s to %s were approved for payout.</p>"+
			"<p><strong>Amount: %.2f %s</strong></p>"+
			"<p>Reference: %s</p>"+
			"<p>The amount will be transferred via %s within the next days.</p>",
		affiliate.DisplayName(),
		run.PeriodStart.Format("2006-01-02"),
		run.PeriodEnd.Format("2006-01-02"),
		amount, run.Currency,
		run.PayoutReference,
		affiliate.PayoutMethod,
	)

	return SendMail(affiliate.Email, subject, body)
}
