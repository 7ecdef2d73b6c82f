package mailer

import (
	"strings"
	"testing"
)

func TestSimulationModeNeverDials(t *testing.T) {
	m := &Mailer{} // no host configured
	if err := m.Send("someone@example.com", "hello", "body"); err != nil {
		t.Fatalf("simulation mode Send: %v", err)
	}
}

func TestMessageHeaders(t *testing.T) {
	msg := string(message("app@example.com", "user@example.com", "Budget Alert: Food", "Hello"))
	for _, want := range []string{
		"From: app@example.com\r\n",
		"To: user@example.com\r\n",
		"Subject: Budget Alert: Food\r\n",
		"\r\n\r\nHello",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}
