package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderAllTemplates(t *testing.T) {
	data := Data{
		Name:         "Rahul Mehta",
		Amount:       "₹3,00,000.00",
		Description:  "Deal commitment",
		Reference:    "INV-2026-08-00042",
		DocumentURL:  "https://documents.angelforge.in/invoices/INV-2026-08-00042.pdf",
		ContactEmail: "support@angelforge.in",
	}

	for name := range subjects {
		subject, body, err := Render(name, data)
		if err != nil {
			t.Fatalf("render %s: %v", name, err)
		}
		assert.NotEmpty(t, subject, name)
		assert.Contains(t, body, "Rahul Mehta", name)
		assert.Contains(t, body, "support@angelforge.in", name)
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	_, body, err := Render("payment-success", Data{
		Name:   `<script>alert("x")</script>`,
		Amount: "₹250.00",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assert.NotContains(t, body, "<script>")
}

func TestRenderDocumentLinks(t *testing.T) {
	_, body, err := Render("invoice-ready", Data{
		Name:        "Anita Rao",
		Amount:      "₹3,00,000.00",
		Reference:   "INV-2026-08-00042",
		DocumentURL: "/documents/invoices/INV-2026-08-00042.pdf",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assert.Contains(t, body, "/documents/invoices/INV-2026-08-00042.pdf")
	assert.Contains(t, body, "INV-2026-08-00042")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render("welcome-back", Data{})
	if err == nil || !strings.Contains(err.Error(), "unknown template") {
		t.Fatalf("expected unknown template error, got %v", err)
	}
}
