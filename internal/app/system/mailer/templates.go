// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// InvitationEmailData holds data for role invitation email templates.
type InvitationEmailData struct {
	SiteName  string
	OrgName   string
	RoleName  string // e.g. "Mentor", "Org Admin"
	ClaimLink string
	ExpiresIn string // e.g. "7 days"
}

// BuildInvitationEmail creates a role invitation email with both HTML and
// text bodies. The claim link carries the single-use invite token.
func BuildInvitationEmail(data InvitationEmailData) Email {
	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("%s invites you to join as %s", data.OrgName, data.RoleName),
		TextBody: buildInvitationText(data),
		HTMLBody: buildInvitationHTML(data),
	}
}

func buildInvitationText(data InvitationEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("%s has invited you to join %s as a %s.\n\n", data.OrgName, data.SiteName, data.RoleName))
	buf.WriteString("Click this link to accept the invitation:\n")
	buf.WriteString(data.ClaimLink + "\n\n")
	buf.WriteString(fmt.Sprintf("The invitation expires in %s and can be used once.\n\n", data.ExpiresIn))
	buf.WriteString("If you were not expecting this invitation, you can safely ignore this email.\n")
	return buf.String()
}

func buildInvitationHTML(data InvitationEmailData) string {
	tmpl := template.Must(template.New("invitation").Parse(invitationHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

// WelcomeEmailData holds data for the post-registration welcome email.
type WelcomeEmailData struct {
	SiteName string
	FullName string
	LoginURL string
}

// BuildWelcomeEmail creates the welcome email sent after registration.
func BuildWelcomeEmail(data WelcomeEmailData) Email {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.FullName))
	buf.WriteString(fmt.Sprintf("Welcome to %s! Your account is ready.\n\n", data.SiteName))
	buf.WriteString("Sign in here:\n")
	buf.WriteString(data.LoginURL + "\n")

	return Email{
		Subject:  fmt.Sprintf("Welcome to %s", data.SiteName),
		TextBody: buf.String(),
	}
}

const invitationHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Invitation</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                <strong>{{.OrgName}}</strong> has invited you to join as a <strong>{{.RoleName}}</strong>.
              </p>

              <!-- Button -->
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.ClaimLink}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">
                      Accept Invitation
                    </a>
                  </td>
                </tr>
              </table>

              <p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af; text-align: center;">
                This invitation expires in {{.ExpiresIn}} and can be used once.
              </p>
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                If you were not expecting this invitation, you can safely ignore this email.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
