package report

import (
	"fmt"
	"net/smtp"
	"strings"

	"batchenc/internal/logging"
)

const emailFrom = "encoder@localhost"

// Email sends the rendered report to the given address through the SMTP
// server at addr, typically localhost:25.
func (r *Report) Email(addr, toAddress string) error {
	if addr == "" {
		addr = "localhost:25"
	}
	text := r.Render()

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", emailFrom)
	fmt.Fprintf(&msg, "To: %s\r\n", toAddress)
	fmt.Fprintf(&msg, "Subject: Video Encoding Report\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(text)
	msg.WriteString("\r\n")

	if err := smtp.SendMail(addr, nil, emailFrom, []string{toAddress}, []byte(msg.String())); err != nil {
		return fmt.Errorf("report: mail to %s: %w", toAddress, err)
	}
	r.logger.Info("report mailed", logging.String("to", toAddress))
	return nil
}
