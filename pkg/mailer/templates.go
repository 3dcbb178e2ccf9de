package mailer

import (
	"bytes"
	"fmt"
	htmltpl "html/template"
	texttpl "text/template"
)

const receiptText = `Hi {{.Name}},

Thanks for your payment of {{.Currency}} {{.PlanAmount}}.

Order:   {{.OrderID}}
Payment: {{.PaymentID}}

Your plan balance is now {{.TotalPlan}}, which unlocks {{.ToolLimit}} saved tools and {{.FolderLimit}} folders.

- The AI Finder team
`

const receiptHTML = `<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto">
  <h2>Payment received</h2>
  <p>Hi {{.Name}},</p>
  <p>Thanks for your payment of <strong>{{.Currency}} {{.PlanAmount}}</strong>.</p>
  <table style="border-collapse:collapse">
    <tr><td style="padding:4px 12px 4px 0">Order</td><td>{{.OrderID}}</td></tr>
    <tr><td style="padding:4px 12px 4px 0">Payment</td><td>{{.PaymentID}}</td></tr>
  </table>
  <p>Your plan balance is now <strong>{{.TotalPlan}}</strong>, which unlocks
     {{.ToolLimit}} saved tools and {{.FolderLimit}} folders.</p>
  <p>- The AI Finder team</p>
</div>`

const complaintText = `New complaint from {{.Email}}

{{.Message}}
`

const complaintHTML = `<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto">
  <h2>New complaint</h2>
  <p><strong>From:</strong> {{.Email}}</p>
  <p>{{.Message}}</p>
</div>`

// Render produces subject, text and html bodies for a named template.
func Render(template string, data map[string]any) (subject, text, html string, err error) {
	switch template {
	case TemplatePaymentReceipt:
		subject = "Your AI Finder payment receipt"
		text, err = renderText(receiptText, data)
		if err != nil {
			return "", "", "", err
		}
		html, err = renderHTML(receiptHTML, data)
		return subject, text, html, err
	case TemplateComplaint:
		subject = fmt.Sprintf("Complaint from %v", data["Email"])
		text, err = renderText(complaintText, data)
		if err != nil {
			return "", "", "", err
		}
		html, err = renderHTML(complaintHTML, data)
		return subject, text, html, err
	default:
		return "", "", "", fmt.Errorf("mailer: unknown template %q", template)
	}
}

func renderText(src string, data map[string]any) (string, error) {
	t, err := texttpl.New("t").Parse(src)
	if err != nil {
		return "", err
	}
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderHTML(src string, data map[string]any) (string, error) {
	t, err := htmltpl.New("h").Parse(src)
	if err != nil {
		return "", err
	}
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
