package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sop-infra/sopctl/config"
	"github.com/sop-infra/sopctl/internal/joblog"
)

var (
	MessageTemplate = "From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n"
)

type JobLog interface {
	Entries(levels ...string) []joblog.Entry
}

type Mailer struct {
	server    string
	sender    string
	receivers []string
	levels    []string
	send      func(recipients []string, message string) error
}

// Report mails the job log entries at the configured levels. Nothing is sent
// without receivers or matching entries.
func (m *Mailer) Report(subject string, jobs JobLog) (bool, error) {
	if len(m.receivers) == 0 {
		return false, nil
	}

	entries := jobs.Entries(m.levels...)
	if len(entries) == 0 {
		return false, nil
	}

	if err := m.Mail(m.receivers, subject, joblog.Report(entries)); err != nil {
		return false, err
	}

	return true, nil
}

func (m *Mailer) Mail(recipients []string, subject, text string) error {
	message := fmt.Sprintf(MessageTemplate, m.sender, strings.Join(recipients, ", "), subject, text)
	return m.send(recipients, message)
}

func (m *Mailer) deliver(recipients []string, message string) error {
	client, err := smtp.Dial(m.server)
	if err != nil {
		return fmt.Errorf("failed to connect to smtp server: %w", err)
	}
	defer client.Close()

	if err := client.Mail(m.sender); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	for _, recipient := range recipients {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", recipient, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}

	if _, err := writer.Write([]byte(message)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}

	if err := client.Quit(); err != nil {
		return fmt.Errorf("failed to quit: %w", err)
	}

	return nil
}

func New(cfg config.Mail) *Mailer {
	m := &Mailer{
		server:    cfg.Server,
		sender:    cfg.Sender,
		receivers: cfg.Receivers,
		levels:    cfg.Levels,
	}
	m.send = m.deliver

	return m
}
