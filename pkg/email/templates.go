package email

import (
	"fmt"
	"html"
	"time"
)

const appName = "HealthPlus"

func page(heading, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #0d9488;">%s</h2>
    %s
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px; border-top: 1px solid #e5e7eb; padding-top: 20px;">The %s Team</p>
</body>
</html>`, html.EscapeString(heading), body, appName)
}

// BuildOTPEmail creates the signup verification email.
func BuildOTPEmail(to, name, code string, ttl time.Duration) Message {
	if name == "" {
		name = "there"
	}
	expires := fmt.Sprintf("This code is valid for %s.", humanDuration(ttl))

	text := fmt.Sprintf(`Hi %s,

Use the code below to verify your %s account:

%s

%s
If you didn't request this, please ignore this email.

The %s Team`, name, appName, code, expires, appName)

	body := fmt.Sprintf(`<p>Use the code below to verify your %s account:</p>
    <p style="text-align: center; margin: 30px 0; background-color: #f3f4f6; padding: 20px; border-radius: 6px;">
        <span style="font-size: 36px; font-weight: bold; font-family: monospace; letter-spacing: 4px;">%s</span>
    </p>
    <p style="color: #ef4444; font-size: 14px; text-align: center;">%s</p>
    <p>If you didn't request this, please ignore this email.</p>`, appName, html.EscapeString(code), expires)

	return Message{
		To:       []string{to},
		Subject:  fmt.Sprintf("Your %s verification code", appName),
		TextBody: text,
		HTMLBody: page("Hi "+name+",", body),
	}
}

// BuildVerificationStatusEmail tells a doctor the outcome of the admin review.
// reason is only used for rejections.
func BuildVerificationStatusEmail(to, name, status, reason string) Message {
	var subject, line string
	switch status {
	case "verified":
		subject = "Your doctor profile has been approved"
		line = "Your credentials have been reviewed and your profile is now visible to patients."
	case "rejected":
		subject = "Your doctor profile needs attention"
		line = "Your credentials could not be approved. Reason: " + reason +
			". Update your profile and documents to submit them for review again."
	default:
		subject = "Your doctor profile is under review"
		line = "We received your profile and will review it shortly."
	}

	return Message{
		To:       []string{to},
		Subject:  subject,
		TextBody: fmt.Sprintf("Hi Dr. %s,\n\n%s\n\nThe %s Team", name, line, appName),
		HTMLBody: page("Hi Dr. "+name+",", "<p>"+html.EscapeString(line)+"</p>"),
	}
}

// BuildAppointmentStatusEmail notifies a patient about an appointment change.
func BuildAppointmentStatusEmail(to, name, date, slot, status string) Message {
	line := fmt.Sprintf("Your appointment on %s at %s is now %s.", date, slot, status)
	return Message{
		To:       []string{to},
		Subject:  "Appointment " + status,
		TextBody: fmt.Sprintf("Hi %s,\n\n%s\n\nThe %s Team", name, line, appName),
		HTMLBody: page("Hi "+name+",", "<p>"+html.EscapeString(line)+"</p>"),
	}
}

func humanDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	return fmt.Sprintf("%d minutes", int(d.Minutes()))
}
