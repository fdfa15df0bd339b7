package email

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
)

// TemplateManager loads and renders the email templates.
type TemplateManager struct {
	templates map[string]*template.Template
	config    Config
}

// NewTemplateManager loads every known template, falling back to the
// built-in versions when the template directory has no override.
func NewTemplateManager(config Config) (*TemplateManager, error) {
	tm := &TemplateManager{
		templates: make(map[string]*template.Template),
		config:    config,
	}

	templates := []string{
		"password_reset",
		"submission_confirmation",
		"response_notification",
		"status_change",
		"notification",
	}

	for _, name := range templates {
		tpl, err := tm.loadTemplate(name)
		if err != nil {
			return nil, fmt.Errorf("failed to load template %s: %w", name, err)
		}
		tm.templates[name] = tpl
	}

	return tm, nil
}

func (tm *TemplateManager) loadTemplate(name string) (*template.Template, error) {
	basePath := filepath.Join(tm.config.TemplatePath, "base.html")
	contentPath := filepath.Join(tm.config.TemplatePath, name+".html")

	// Prefer the on-disk template pair, then content-only, then built-in.
	tpl, err := template.ParseFiles(basePath, contentPath)
	if err != nil {
		tpl, err = template.ParseFiles(contentPath)
		if err != nil {
			return tm.getBuiltinTemplate(name)
		}
	}

	return tpl, nil
}

func (tm *TemplateManager) getBuiltinTemplate(name string) (*template.Template, error) {
	var tplText string

	switch name {
	case "password_reset":
		tplText = passwordResetTemplate
	case "submission_confirmation":
		tplText = submissionConfirmationTemplate
	case "response_notification":
		tplText = responseNotificationTemplate
	case "status_change":
		tplText = statusChangeTemplate
	case "notification":
		tplText = notificationTemplate
	default:
		return nil, fmt.Errorf("unknown template: %s", name)
	}

	return template.New(name).Parse(tplText)
}

// Render renders a template by name.
func (tm *TemplateManager) Render(templateName string, data interface{}) (string, error) {
	tpl, exists := tm.templates[templateName]
	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}

	return buf.String(), nil
}

// Built-in fallback templates

const (
	passwordResetTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Password Reset</title>
</head>
<body>
    <h2>Reset your password</h2>
    <p>Hello, {{.UserName}}!</p>
    <p>We received a request to reset the password for your EXCOS account.</p>
    <a href="{{.ResetURL}}" style="background-color: #007bff; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Reset Password</a>
    <p>This link expires in {{.ExpiresIn}}. If you did not request a reset, you can safely ignore this email.</p>
</body>
</html>`

	submissionConfirmationTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Complaint Received</title>
</head>
<body>
    <h2>Your complaint has been received</h2>
    <p>Hello, {{.UserName}}!</p>
    <p>Your complaint about <strong>{{.ExamName}}</strong> has been submitted successfully.</p>
    <div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px;">
        <p>Reference number: <strong>{{.ReferenceNumber}}</strong></p>
    </div>
    <p>Keep this number to track the progress of your complaint.</p>
    <a href="{{.TrackURL}}" style="background-color: #28a745; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Track Complaint</a>
</body>
</html>`

	responseNotificationTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New Response</title>
</head>
<body>
    <h2>There is a new response on your complaint</h2>
    <p>Hello, {{.UserName}}!</p>
    <p>{{.ResponderName}} responded to your complaint <strong>{{.ReferenceNumber}}</strong>:</p>
    <div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px;">
        <p>{{.ResponseText}}</p>
    </div>
    <a href="{{.ComplaintURL}}" style="background-color: #007bff; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">View Complaint</a>
</body>
</html>`

	statusChangeTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Complaint Status Updated</title>
</head>
<body>
    <h2>Your complaint status was updated</h2>
    <p>Hello, {{.UserName}}!</p>
    <p>Complaint <strong>{{.ReferenceNumber}}</strong> is now: <strong>{{.NewStatus}}</strong></p>
    {{if eq .NewStatus "resolved"}}
    <p>Your complaint has been resolved. Check the responses for the outcome.</p>
    {{end}}
    <a href="{{.ComplaintURL}}" style="background-color: #007bff; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">View Complaint</a>
</body>
</html>`

	notificationTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
</head>
<body>
    <h2>{{.Subject}}</h2>
    <p>{{.Message}}</p>
    {{if .ActionURL}}
    <a href="{{.ActionURL}}" style="background-color: #28a745; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">{{.ActionText}}</a>
    {{end}}
</body>
</html>`
)
