package service

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/smallbiznis/formpay/internal/receipt/domain"
)

//go:embed templates/receipt.html
var templateFS embed.FS

var receiptTemplate = template.Must(template.ParseFS(templateFS, "templates/receipt.html"))

// Subject returns the receipt subject line for a form.
func Subject(formTitle string) string {
	return "Payment Receipt for " + formTitle
}

// Render executes the receipt template.
func Render(data domain.TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render receipt: %w", err)
	}
	return buf.String(), nil
}
