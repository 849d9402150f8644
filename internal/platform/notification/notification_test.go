package notification

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRenderBuiltInTemplate(t *testing.T) {
	e := NewTemplateEngine()
	subject, body, err := e.Render("reorder-alert", map[string]string{
		"medicine":      "Amoxicillin",
		"on_hand":       "8",
		"reorder_level": "10",
		"suggested":     "12",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if subject != "Reorder needed: Amoxicillin" {
		t.Errorf("subject = %q", subject)
	}
	if !strings.Contains(body, "8 units") || !strings.Contains(body, "Suggested order quantity: 12") {
		t.Errorf("body not fully rendered: %q", body)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	e := NewTemplateEngine()
	if _, _, err := e.Render("no-such-template", nil); err == nil {
		t.Error("expected an error for an unknown template")
	}
}

func TestRenderLeavesMissingKeys(t *testing.T) {
	e := NewTemplateEngine()
	_, body, err := e.Render("dispense-ready", map[string]string{"medicine": "Amoxil"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(body, "{{patient_name}}") {
		t.Errorf("missing keys should be left as placeholders: %q", body)
	}
}

func TestSendFromTemplatePicksChannel(t *testing.T) {
	email := &MockEmailSender{}
	sms := &MockSMSSender{}
	m := NewManager(email, sms, NewTemplateEngine())

	if _, err := m.SendFromTemplate(context.Background(), "reorder-alert",
		map[string]string{"medicine": "Warfarin"}, "ops@clinic.test"); err != nil {
		t.Fatalf("SendFromTemplate email: %v", err)
	}
	if _, err := m.SendFromTemplate(context.Background(), "dispense-ready",
		map[string]string{"medicine": "Warfarin"}, "+15550100"); err != nil {
		t.Fatalf("SendFromTemplate sms: %v", err)
	}

	if got := len(email.Calls()); got != 1 {
		t.Errorf("email calls = %d, want 1", got)
	}
	if got := len(sms.Calls()); got != 1 {
		t.Errorf("sms calls = %d, want 1", got)
	}
	if to := email.Calls()[0].To; to != "ops@clinic.test" {
		t.Errorf("email recipient = %q", to)
	}
}

func TestSendFailureRecordedAndRetryable(t *testing.T) {
	email := &MockEmailSender{ShouldFail: true, FailError: "smtp down"}
	m := NewManager(email, &MockSMSSender{}, NewTemplateEngine())

	n, err := m.SendFromTemplate(context.Background(), "reorder-alert",
		map[string]string{"medicine": "Insulin"}, "ops@clinic.test")
	if err == nil {
		t.Fatal("expected send failure")
	}
	if n.Status != "failed" || n.Error != "smtp down" {
		t.Errorf("status/error = %q/%q", n.Status, n.Error)
	}

	email.ShouldFail = false
	if err := m.Retry(context.Background(), n.ID); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	got, err := m.Get(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != "sent" {
		t.Errorf("status after retry = %q, want sent", got.Status)
	}

	// A sent notification cannot be retried again.
	if err := m.Retry(context.Background(), n.ID); err == nil {
		t.Error("expected retry of a sent notification to fail")
	}
}

func TestLogSendersWriteToLog(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	m := NewManager(NewLogEmailSender(logger), NewLogSMSSender(logger), NewTemplateEngine())

	if _, err := m.SendFromTemplate(context.Background(), "reorder-alert",
		map[string]string{"medicine": "Metformin"}, "ops@clinic.test"); err != nil {
		t.Fatalf("SendFromTemplate email: %v", err)
	}
	if _, err := m.SendFromTemplate(context.Background(), "dispense-ready",
		map[string]string{"medicine": "Metformin"}, "+15550100"); err != nil {
		t.Fatalf("SendFromTemplate sms: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"channel":"email"`, `"channel":"sms"`, "Metformin", "ops@clinic.test"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestStats(t *testing.T) {
	email := &MockEmailSender{}
	m := NewManager(email, &MockSMSSender{}, NewTemplateEngine())

	for i := 0; i < 3; i++ {
		if _, err := m.SendFromTemplate(context.Background(), "reorder-alert",
			map[string]string{"medicine": "Aspirin"}, "ops@clinic.test"); err != nil {
			t.Fatalf("SendFromTemplate: %v", err)
		}
	}
	stats := m.Stats(context.Background())
	if stats["sent"] != 3 {
		t.Errorf("sent = %d, want 3", stats["sent"])
	}
}
