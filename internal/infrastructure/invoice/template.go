// Package invoice renders order invoices as HTML and converts them to PDF
// with headless Chrome.
package invoice

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/perfume/backend/internal/domain/order"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var labels = map[string]map[string]string{
	valueobject.LangEN: {
		"invoice":   "Invoice",
		"order":     "Order",
		"date":      "Date",
		"billTo":    "Ship to",
		"product":   "Product",
		"qty":       "Qty",
		"unitPrice": "Unit price",
		"amount":    "Amount",
		"subtotal":  "Subtotal",
		"shipping":  "Shipping",
		"total":     "Total",
		"payment":   "Payment",
		"status":    "Status",
		"thanks":    "Thank you for shopping with us.",
	},
	valueobject.LangAR: {
		"invoice":   "فاتورة",
		"order":     "الطلب",
		"date":      "التاريخ",
		"billTo":    "الشحن إلى",
		"product":   "المنتج",
		"qty":       "الكمية",
		"unitPrice": "سعر الوحدة",
		"amount":    "المبلغ",
		"subtotal":  "المجموع الفرعي",
		"shipping":  "الشحن",
		"total":     "الإجمالي",
		"payment":   "الدفع",
		"status":    "الحالة",
		"thanks":    "شكرا لتسوقك معنا.",
	},
}

var paymentLabels = map[order.PaymentMethod]string{
	order.PaymentCOD:    "Cash on delivery",
	order.PaymentPayPal: "PayPal",
	order.PaymentPaymob: "Card (Paymob)",
}

var titleCaser = cases.Title(language.English)

var invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": formatMoney,
	"date":  formatDate,
	"title": func(s string) string { return titleCaser.String(strings.ReplaceAll(s, "_", " ")) },
}).Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}" dir="{{.Dir}}">
<head>
<meta charset="UTF-8">
<title>{{.L.invoice}} {{.Order.Number}}</title>
<style>
body { font-family: "Helvetica Neue", Arial, "Noto Naskh Arabic", sans-serif; color: #1d1d1b; margin: 0; font-size: 12px; }
header { display: flex; justify-content: space-between; border-bottom: 2px solid #b08d57; padding-bottom: 12px; }
h1 { font-weight: 300; letter-spacing: 4px; text-transform: uppercase; margin: 0; }
.meta td { padding: 2px 8px 2px 0; }
table.items { width: 100%; border-collapse: collapse; margin-top: 24px; }
table.items th { text-align: start; border-bottom: 1px solid #ccc; padding: 6px 4px; font-weight: 600; }
table.items td { padding: 6px 4px; border-bottom: 1px solid #eee; }
.num { text-align: end; white-space: nowrap; }
.totals { margin-top: 16px; margin-inline-start: auto; width: 40%; }
.totals td { padding: 4px; }
.grand td { font-weight: 700; border-top: 1px solid #1d1d1b; }
footer { margin-top: 40px; color: #777; text-align: center; }
</style>
</head>
<body>
<header>
  <div><h1>{{.StoreName}}</h1></div>
  <div>
    <table class="meta">
      <tr><td>{{.L.invoice}}</td><td>{{.Order.Number}}</td></tr>
      <tr><td>{{.L.date}}</td><td>{{date .IssuedAt}}</td></tr>
      <tr><td>{{.L.payment}}</td><td>{{.Payment}}</td></tr>
      <tr><td>{{.L.status}}</td><td>{{title (printf "%s" .Order.PaymentStatus)}}</td></tr>
    </table>
  </div>
</header>
<section>
  <h3>{{.L.billTo}}</h3>
  <div>{{.Order.Shipping.FullName}}</div>
  <div>{{.Order.Shipping.String}}</div>
  <div>{{.Order.Shipping.Phone}}</div>
</section>
<table class="items">
  <thead><tr><th>{{.L.product}}</th><th class="num">{{.L.qty}}</th><th class="num">{{.L.unitPrice}}</th><th class="num">{{.L.amount}}</th></tr></thead>
  <tbody>
  {{- range .Lines}}
    <tr><td>{{.Name}}</td><td class="num">{{.Quantity}}</td><td class="num">{{money .UnitPrice}}</td><td class="num">{{money .Subtotal}}</td></tr>
  {{- end}}
  </tbody>
</table>
<table class="totals">
  <tr><td>{{.L.subtotal}}</td><td class="num">{{money .Order.Subtotal}}</td></tr>
  <tr><td>{{.L.shipping}}</td><td class="num">{{money .Order.ShippingFee}}</td></tr>
  <tr class="grand"><td>{{.L.total}}</td><td class="num">{{money .Order.Total}}</td></tr>
</table>
<footer>{{.L.thanks}}</footer>
</body>
</html>
`))

type line struct {
	Name      string
	Quantity  int
	UnitPrice valueobject.Money
	Subtotal  valueobject.Money
}

type invoiceData struct {
	Lang      string
	Dir       string
	L         map[string]string
	StoreName string
	Order     *order.Order
	Lines     []line
	Payment   string
	IssuedAt  time.Time
}

// RenderHTML renders the invoice of o in lang. Unsupported languages fall
// back to English.
func RenderHTML(o *order.Order, lang, storeName string, issuedAt time.Time) ([]byte, error) {
	if o == nil {
		return nil, fmt.Errorf("order is required")
	}
	if _, ok := labels[lang]; !ok {
		lang = valueobject.DefaultLanguage
	}
	dir := "ltr"
	if valueobject.IsRTL(lang) {
		dir = "rtl"
	}
	lines := make([]line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, line{
			Name:      it.Name.Get(lang),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal(),
		})
	}
	payment := paymentLabels[o.PaymentMethod]
	if payment == "" {
		payment = string(o.PaymentMethod)
	}

	var buf bytes.Buffer
	err := invoiceTemplate.Execute(&buf, invoiceData{
		Lang:      lang,
		Dir:       dir,
		L:         labels[lang],
		StoreName: storeName,
		Order:     o,
		Lines:     lines,
		Payment:   payment,
		IssuedAt:  issuedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}
	return buf.Bytes(), nil
}

// formatMoney renders 1234.5 EGP as "1,234.50 EGP"
func formatMoney(m valueobject.Money) string {
	f, _ := m.Amount().Round(2).Float64()
	return humanize.FormatFloat("#,###.##", f) + " " + string(m.Currency())
}

func formatDate(t time.Time) string {
	return t.UTC().Format("02 Jan 2006")
}
