package emails

import (
	"bytes"
	"html/template"
	"time"
)

const (
	themePrimary = "#2F7D4F"
	themeBgBody  = "#F3F4F6"
)

var inviteTmpl = template.Must(template.New("invite").Parse(`
    <h1>You've been invited to {{.AssetName}}</h1>
    <p><strong>{{.OrgName}}</strong> has added you as a tenant of <strong>{{.AssetName}}</strong> on GreenLedger.</p>
    <p>Accept the invitation to see the building's energy data and share your own documents.</p>
    <p style="text-align:center"><a href="{{.Link}}" class="gl-button">Accept invitation</a></p>
    <p style="font-size:14px;color:#666;">This link expires on {{.ExpiresAt.Format "2 Jan 2006"}}. If you were not expecting it, ignore this email.</p>
`))

var receiptTmpl = template.Must(template.New("receipt").Parse(`
    <h1>Purchase complete</h1>
    <p>You bought <strong>{{.Quantity}}</strong> credits from <strong>{{.ProjectName}}</strong>.</p>
    <p>Total charged: <strong>{{.TotalAmount}} {{.Currency}}</strong></p>
`))

var layoutTmpl = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>GreenLedger</title>
  <style>
    body { margin: 0; padding: 0; background-color: {{.Bg}}; font-family: -apple-system, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; }
    .content-body p { font-size: 16px; line-height: 1.6; color: #374151; }
    .gl-button { display: inline-block; background-color: {{.Primary}}; color: #ffffff !important; padding: 12px 32px; border-radius: 6px; font-weight: 600; text-decoration: none; }
  </style>
</head>
<body>
  <table role="presentation" width="100%" style="background-color: {{.Bg}};">
    <tr><td align="center" style="padding: 40px 0;">
      <table role="presentation" width="600" style="background:#fff;border-radius:8px;">
        <tr><td class="content-body" style="padding: 40px 48px;">{{.Content}}</td></tr>
        <tr><td align="center" style="padding: 0 48px 32px;font-size:13px;color:#6B7280;">&copy; {{.Year}} GreenLedger</td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`))

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Layout wraps already-rendered content in the branded shell.
func Layout(content string) string {
	out, _ := render(layoutTmpl, map[string]interface{}{
		"Bg":      template.CSS(themeBgBody),
		"Primary": template.CSS(themePrimary),
		"Content": template.HTML(content),
		"Year":    time.Now().Year(),
	})
	return out
}
