package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/shopspring/decimal"
)

var receiptTemplate = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.UTC().Format("02/01/2006 15:04 MST") },
}).Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Comprobante de compra</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 8px; }
        table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        th, td { padding: 8px; border-bottom: 1px solid #ddd; text-align: left; }
        .total { font-size: 18px; font-weight: bold; color: #007bff; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Comprobante de compra</h1>
            <p>Venta #{{.Sale.ID}}</p>
            <p>Fecha: {{date .Sale.Date}}</p>
        </div>
        <h2>Hola {{.BuyerName}},</h2>
        <p>Gracias por tu compra. Este es el detalle:</p>
        <table>
            <tr><th>Producto</th><th>Cantidad</th><th>Subtotal</th></tr>
            {{- range .Sale.Lines}}
            <tr><td>{{if .ProductName}}{{.ProductName}} ({{.ProductID}}){{else}}{{.ProductID}}{{end}}</td><td>{{.Quantity}}</td><td>{{money .Subtotal}}</td></tr>
            {{- end}}
        </table>
        <p>IVA: {{money .Sale.VAT}}</p>
        <p class="total">Total: {{money .Sale.Total}}</p>
    </div>
</body>
</html>`))

// ReceiptSubject retorna el asunto del comprobante de una venta
func ReceiptSubject(saleID int64) string {
	return fmt.Sprintf("Comprobante de compra #%d", saleID)
}

// RenderReceipt genera el HTML del comprobante
func RenderReceipt(buyer *models.User, sale *models.Sale) (string, error) {
	var buf bytes.Buffer
	err := receiptTemplate.Execute(&buf, struct {
		BuyerName string
		Sale      *models.Sale
	}{
		BuyerName: buyer.DisplayName(),
		Sale:      sale,
	})
	if err != nil {
		return "", fmt.Errorf("error rendering receipt: %w", err)
	}
	return buf.String(), nil
}
