package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		msg     Message
		wantErr bool
	}{
		{"ok", "noreply@healthplus.test", Message{To: []string{"a@b.c"}, Subject: "hi", TextBody: "body"}, false},
		{"html only", "noreply@healthplus.test", Message{To: []string{"a@b.c"}, Subject: "hi", HTMLBody: "<p>x</p>"}, false},
		{"reply-to", "noreply@healthplus.test", Message{To: []string{"a@b.c"}, ReplyTo: "support@healthplus.test", Subject: "hi", TextBody: "body"}, false},
		{"missing from", " ", Message{To: []string{"a@b.c"}, Subject: "hi", TextBody: "body"}, true},
		{"blank recipients", "noreply@healthplus.test", Message{To: []string{" "}, Subject: "hi", TextBody: "body"}, true},
		{"missing subject", "noreply@healthplus.test", Message{To: []string{"a@b.c"}, TextBody: "body"}, true},
		{"missing body", "noreply@healthplus.test", Message{To: []string{"a@b.c"}, Subject: "hi"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(Config{From: tt.from, SenderName: appName})
			_, err := c.compose(tt.msg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("compose() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidMessage) {
				t.Errorf("error %v does not wrap ErrInvalidMessage", err)
			}
		})
	}
}

func TestSendDisabledIsNoop(t *testing.T) {
	c := New(Config{Enabled: false, From: "noreply@healthplus.test"})
	err := c.Send(context.Background(), BuildOTPEmail("a@b.c", "Asha", "123456", time.Minute))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
}

func TestSendDisabledStillValidates(t *testing.T) {
	c := New(Config{Enabled: false, From: "noreply@healthplus.test"})
	err := c.Send(context.Background(), Message{Subject: "hi", TextBody: "body"})
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("Send() error = %v, want ErrInvalidMessage", err)
	}
}

func TestTemplates(t *testing.T) {
	otp := BuildOTPEmail("a@b.c", "", "042137", 60*time.Second)
	if !strings.Contains(otp.TextBody, "042137") || !strings.Contains(otp.TextBody, "60 seconds") {
		t.Errorf("OTP text body missing code or expiry: %q", otp.TextBody)
	}

	rejected := BuildVerificationStatusEmail("d@b.c", "Rao", "rejected", "Missing license")
	if !strings.Contains(rejected.TextBody, "Missing license") {
		t.Errorf("rejection email missing reason: %q", rejected.TextBody)
	}

	approved := BuildVerificationStatusEmail("d@b.c", "Rao", "verified", "")
	if approved.Subject == rejected.Subject {
		t.Error("approved and rejected emails share a subject")
	}
}
