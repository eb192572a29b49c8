package certificates

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/voltaria/voltaria-backend/pkg/config"
	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/logger"
)

// Uploader is the storage surface the generator needs.
type Uploader interface {
	Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error)
}

// Generator renders warranty certificates and stores them in the asset bucket.
type Generator struct {
	uploader Uploader
	prefix   string
	logg     *logger.Logger
	tmpl     *template.Template
}

// NewGenerator constructs a certificate generator.
func NewGenerator(uploader Uploader, cfg config.GCSConfig, logg *logger.Logger) (*Generator, error) {
	if uploader == nil {
		return nil, fmt.Errorf("uploader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	tmpl, err := template.New("certificate").Parse(certificateTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing certificate template: %w", err)
	}
	prefix := strings.Trim(cfg.CertificatePrefix, "/")
	if prefix == "" {
		prefix = "warranty-certificates"
	}
	return &Generator{uploader: uploader, prefix: prefix, logg: logg, tmpl: tmpl}, nil
}

type certificateData struct {
	CertificateNumber string
	ProductName       string
	ModelNumber       string
	SerialNumber      string
	PurchaserName     string
	PurchaseDate      string
	StartDate         string
	EndDate           string
	PeriodMonths      int
}

// Generate renders the certificate for an approved warranty, uploads it, and
// returns the public URL.
func (g *Generator) Generate(ctx context.Context, warranty *models.Warranty) (string, error) {
	if warranty == nil {
		return "", fmt.Errorf("warranty required")
	}
	if warranty.WarrantyStartDate == nil || warranty.WarrantyEndDate == nil {
		return "", fmt.Errorf("warranty window not set")
	}

	data := certificateData{
		CertificateNumber: strings.ToUpper(warranty.ID.String()[:8]),
		ProductName:       warranty.ProductName,
		ModelNumber:       warranty.ModelNumber,
		SerialNumber:      warranty.SerialNumber,
		PurchaserName:     warranty.PurchaserName,
		PurchaseDate:      warranty.PurchaseDate.Format("January 2, 2006"),
		StartDate:         warranty.WarrantyStartDate.Format("January 2, 2006"),
		EndDate:           warranty.WarrantyEndDate.Format("January 2, 2006"),
		PeriodMonths:      warranty.WarrantyPeriodMonths,
	}

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering certificate: %w", err)
	}

	objectName := fmt.Sprintf("%s/%s.html", g.prefix, warranty.ID)
	url, err := g.uploader.Upload(ctx, objectName, "text/html; charset=utf-8", buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("uploading certificate: %w", err)
	}

	logCtx := g.logg.WithFields(ctx, map[string]any{
		"warranty_id": warranty.ID.String(),
		"object":      objectName,
	})
	g.logg.Info(logCtx, "warranty certificate stored")
	return url, nil
}

const certificateTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Voltaria Warranty Certificate</title>
<style>
  body { font-family: Georgia, serif; margin: 48px; color: #1a2330; }
  .frame { border: 3px double #27415f; padding: 40px; }
  h1 { text-align: center; letter-spacing: 2px; }
  .number { text-align: center; color: #5a6b80; }
  table { width: 100%; margin-top: 32px; border-collapse: collapse; }
  td { padding: 8px 4px; border-bottom: 1px solid #dbe2ea; }
  td:first-child { width: 40%; color: #5a6b80; }
</style>
</head>
<body>
<div class="frame">
  <h1>Warranty Certificate</h1>
  <p class="number">Certificate No. {{.CertificateNumber}}</p>
  <table>
    <tr><td>Product</td><td>{{.ProductName}}</td></tr>
    <tr><td>Model</td><td>{{.ModelNumber}}</td></tr>
    <tr><td>Serial Number</td><td>{{.SerialNumber}}</td></tr>
    <tr><td>Registered To</td><td>{{.PurchaserName}}</td></tr>
    <tr><td>Purchase Date</td><td>{{.PurchaseDate}}</td></tr>
    <tr><td>Coverage</td><td>{{.PeriodMonths}} months</td></tr>
    <tr><td>Valid From</td><td>{{.StartDate}}</td></tr>
    <tr><td>Valid Until</td><td>{{.EndDate}}</td></tr>
  </table>
</div>
</body>
</html>
`
