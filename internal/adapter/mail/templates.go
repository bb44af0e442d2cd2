package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

const (
	activationSubject    = "Activate your DGBCommerce merchant account"
	passwordResetSubject = "Reset your DGBCommerce password"
)

var (
	activationTmpl = template.Must(template.New("activation").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Hello {{.Username}},</p>
<p>Your DGBCommerce merchant account has been created. Choose a password to activate it:</p>
<p><a href="{{.Link}}">Activate account</a></p>
<p>If you did not register, you can ignore this e-mail.</p>
</body>
</html>`))

	passwordResetTmpl = template.Must(template.New("password_reset").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Hello {{.Username}},</p>
<p>A password reset was requested for your DGBCommerce merchant account.</p>
<p><a href="{{.Link}}">Reset password</a></p>
<p>The link can be used once. If you did not request a reset, you can ignore this e-mail.</p>
</body>
</html>`))
)

type linkData struct {
	Username string
	Link     string
}

// RenderActivation returns the subject and HTML body of the activation e-mail.
func RenderActivation(username, link string) (string, string, error) {
	body, err := render(activationTmpl, username, link)
	return activationSubject, body, err
}

// RenderPasswordReset returns the subject and HTML body of the password reset e-mail.
func RenderPasswordReset(username, link string) (string, string, error) {
	body, err := render(passwordResetTmpl, username, link)
	return passwordResetSubject, body, err
}

func render(t *template.Template, username, link string) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, linkData{Username: username, Link: link}); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
