package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

const (
	statusAccepted = "ACCEPTED"
	statusRejected = "REJECTED"
)

var emailTmpl = template.Must(template.New("email").Parse(`
{{define "layout"}}<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#333;max-width:600px;margin:0 auto">
<h2>Admissions Office</h2>
<p>Dear {{.Name}},</p>
{{template "body" .}}
<p>Regards,<br>Admissions Team</p>
</body></html>{{end}}

{{define "submitted"}}{{template "layout" .}}{{end}}
{{define "accepted"}}{{template "layout" .}}{{end}}
{{define "rejected"}}{{template "layout" .}}{{end}}
{{define "status"}}{{template "layout" .}}{{end}}
`))

// Each kind of mail gets its own body template; the shared layout calls "body".
var bodies = map[string]string{
	"submitted": `<p>We received your application to the <strong>{{.Program}}</strong> program.
It is now pending review and we will email you when the status changes.</p>`,
	"accepted": `<p>We are pleased to tell you that your application to the <strong>{{.Program}}</strong>
program has been <strong>accepted</strong>.</p>
<p>Log in to the student portal to complete your enrollment.</p>`,
	"rejected": `<p>After careful review we are unable to offer you a place in the
<strong>{{.Program}}</strong> program this cycle.</p>
<p>You are welcome to apply again in a future intake.</p>`,
	"status": `<p>The status of your application to the <strong>{{.Program}}</strong> program
changed from {{.OldStatus}} to <strong>{{.NewStatus}}</strong>.</p>`,
}

type emailData struct {
	Name      string
	Program   string
	OldStatus string
	NewStatus string
}

func renderEmail(ev Event) (subject, html string, err error) {
	name, subject := emailKind(ev)

	t, err := emailTmpl.Clone()
	if err != nil {
		return "", "", err
	}
	if _, err := t.New("body").Parse(bodies[name]); err != nil {
		return "", "", err
	}

	recipient := strings.TrimSpace(ev.FullName)
	if recipient == "" {
		recipient = "Applicant"
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, emailData{
		Name:      recipient,
		Program:   ev.Program,
		OldStatus: ev.OldStatus,
		NewStatus: ev.NewStatus,
	}); err != nil {
		return "", "", fmt.Errorf("render %s email: %w", name, err)
	}
	return subject, buf.String(), nil
}

func emailKind(ev Event) (name, subject string) {
	if ev.Kind == KindApplicantSubmitted {
		return "submitted", "Application received"
	}
	switch strings.ToUpper(ev.NewStatus) {
	case statusAccepted:
		return "accepted", "Congratulations, you have been accepted"
	case statusRejected:
		return "rejected", "Application status update"
	default:
		return "status", "Application status update"
	}
}
