// Package templates holds the transactional email bodies, embedded so the
// binary ships self-contained.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed *.html
var files embed.FS

var parsed = template.Must(template.ParseFS(files, "*.html"))

// Data feeds every email template. Amount arrives pre-formatted with its
// currency symbol.
type Data struct {
	Name         string
	Amount       string
	Description  string
	Reference    string
	DocumentURL  string
	ContactEmail string
}

var subjects = map[string]string{
	"payment-initiated": "Your payment is being processed",
	"payment-success":   "Payment received",
	"payment-failed":    "Payment failed",
	"refund-processed":  "Your refund has been processed",
	"invoice-ready":     "Your invoice is ready",
	"statement-ready":   "Your financial statement is ready",
}

// Render returns the subject and HTML body for a template name.
func Render(name string, data Data) (string, string, error) {
	subject, ok := subjects[name]
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", name)
	}
	var body bytes.Buffer
	if err := parsed.ExecuteTemplate(&body, name+".html", data); err != nil {
		return "", "", err
	}
	return subject, body.String(), nil
}
