// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// PasswordResetData holds data for password-reset email templates.
type PasswordResetData struct {
	SiteName  string
	Token     string
	ResetLink string // optional full link; token shown alone when empty
	ExpiresIn string // e.g., "30 minutes"
}

// BuildPasswordResetEmail creates a reset email with text and HTML bodies.
// The caller sets To before sending.
func BuildPasswordResetEmail(data PasswordResetData) Email {
	return Email{
		Subject:  fmt.Sprintf("Reset your %s password", data.SiteName),
		TextBody: buildResetText(data),
		HTMLBody: buildResetHTML(data),
	}
}

func buildResetText(data PasswordResetData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "A password reset was requested for your %s account.\n\n", data.SiteName)
	if data.ResetLink != "" {
		buf.WriteString("Open this link to choose a new password:\n")
		buf.WriteString(data.ResetLink + "\n\n")
	} else {
		buf.WriteString("Your reset code is:\n")
		buf.WriteString(data.Token + "\n\n")
	}
	fmt.Fprintf(&buf, "This link expires in %s.\n\n", data.ExpiresIn)
	buf.WriteString("If you did not request a reset, you can safely ignore this email.\n")
	return buf.String()
}

func buildResetHTML(data PasswordResetData) string {
	tmpl := template.Must(template.New("reset").Parse(resetHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const resetHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Password Reset</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151;">
                A password reset was requested for your account.
              </p>
              {{if .ResetLink}}
              <p style="text-align: center; margin: 0 0 24px;">
                <a href="{{.ResetLink}}" style="display: inline-block; padding: 12px 24px; background-color: #4f46e5; color: #ffffff; border-radius: 6px; text-decoration: none;">Choose a new password</a>
              </p>
              {{else}}
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 24px; text-align: center; margin-bottom: 24px;">
                <span style="font-size: 16px; font-family: 'Courier New', monospace; color: #1f2937;">{{.Token}}</span>
              </div>
              {{end}}
              <p style="margin: 0; font-size: 14px; color: #6b7280;">
                This link expires in {{.ExpiresIn}}. If you did not request a
                reset, you can safely ignore this email.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
