package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/diagnosis/clinic-bookings/internal/mailer"
	"github.com/diagnosis/clinic-bookings/pkg/events"
)

const buttonStyle = "background-color: #2b7a78; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;"

func welcomeMessage(e events.UserRegisteredEvent) mailer.Message {
	name := strings.TrimSpace(e.FirstName + " " + e.LastName)
	return mailer.Message{
		ToEmail: e.Email,
		ToName:  name,
		Subject: "Welcome to the clinic",
		Text:    fmt.Sprintf("Hi %s,\n\nYour account is ready. You can now book appointments online.", name),
		HTML: fmt.Sprintf(`
		<h2>Welcome!</h2>
		<p>Hi %s,</p>
		<p>Your account is ready. You can now book appointments online.</p>
	`, html.EscapeString(name)),
	}
}

func receivedMessage(e events.AppointmentCreatedEvent) mailer.Message {
	return mailer.Message{
		ToEmail: e.PatientEmail,
		ToName:  e.PatientName,
		Subject: "We received your appointment request",
		Text: fmt.Sprintf("Hi %s,\n\nYour %s appointment with %s on %s at %s is pending confirmation.",
			e.PatientName, e.Service, e.DoctorName, e.Date, e.Time),
		HTML: fmt.Sprintf(`
		<h2>Appointment request received</h2>
		<p>Hi %s,</p>
		<p>Your <strong>%s</strong> appointment with %s on <strong>%s at %s</strong> is pending confirmation.</p>
		<p>We will email you again once the clinic confirms it.</p>
	`, html.EscapeString(e.PatientName), html.EscapeString(e.Service), html.EscapeString(e.DoctorName), e.Date, e.Time),
	}
}

// statusMessage renders mail for confirmations and cancellations. Other
// transitions are not announced to the patient.
func statusMessage(e events.AppointmentStatusChangedEvent) (mailer.Message, bool) {
	var subject, line string
	switch e.To {
	case "confirmed":
		subject = "Your appointment is confirmed"
		line = "is confirmed. Please arrive ten minutes early."
	case "cancelled":
		subject = "Your appointment was cancelled"
		line = "was cancelled. You can book a new slot online at any time."
	default:
		return mailer.Message{}, false
	}

	return mailer.Message{
		ToEmail: e.PatientEmail,
		ToName:  e.PatientName,
		Subject: subject,
		Text: fmt.Sprintf("Hi %s,\n\nYour appointment with %s on %s at %s %s",
			e.PatientName, e.DoctorName, e.Date, e.Time, line),
		HTML: fmt.Sprintf(`
		<h2>%s</h2>
		<p>Hi %s,</p>
		<p>Your appointment with %s on <strong>%s at %s</strong> %s</p>
		<p><a href="#" style="%s">Manage appointments</a></p>
	`, subject, html.EscapeString(e.PatientName), html.EscapeString(e.DoctorName), e.Date, e.Time, line, buttonStyle),
	}, true
}
