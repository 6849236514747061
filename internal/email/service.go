// Package email sends compliance alert mail over plain SMTP.
package email

import (
	"fmt"
	"net/smtp"
)

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
	}
}

// SendDiscrepancyAlert notifies a supervisor that a discrepancy case opened.
func (s *Service) SendDiscrepancyAlert(to, caseID, description string) error {
	shortID := caseID
	if len(caseID) > 8 {
		shortID = caseID[:8]
	}
	subject := fmt.Sprintf("[Discrepancy] Case %s opened", shortID)
	body := BuildDiscrepancyAlertBody(caseID, description)
	return s.send(to, subject, body)
}

// SendWasteWitnessedNotice confirms a witnessed waste for the compliance file.
func (s *Service) SendWasteWitnessedNotice(to, wasteID, details string) error {
	shortID := wasteID
	if len(wasteID) > 8 {
		shortID = wasteID[:8]
	}
	subject := fmt.Sprintf("[Waste Witnessed] Record %s", shortID)
	body := BuildWasteWitnessedBody(wasteID, details)
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
