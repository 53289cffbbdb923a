package email

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
)

// DeliveryEstimate returns the earliest and latest expected delivery dates.
func DeliveryEstimate(method entity.ShippingMethod, placedAt time.Time) (time.Time, time.Time) {
	switch method {
	case entity.ShippingExpress:
		return placedAt.AddDate(0, 0, 1), placedAt.AddDate(0, 0, 2)
	default:
		return placedAt.AddDate(0, 0, 3), placedAt.AddDate(0, 0, 5)
	}
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(
	`Hi {{.CustomerName}},

Thank you for your order {{.OrderNumber}}.

{{range .Items}}- {{.Name}}{{if .Variant}} ({{.Variant}}){{end}} x{{.Quantity}}  {{.Price.StringFixed 0}}
{{end}}
Subtotal:        {{.Subtotal.StringFixed 0}}
{{- if .DiscountAmount.IsPositive}}
Coupon discount: -{{.DiscountAmount.StringFixed 0}}{{end}}
{{- if .PointsDiscount.IsPositive}}
Points discount: -{{.PointsDiscount.StringFixed 0}}{{end}}
Shipping:        {{.ShippingCost.StringFixed 0}}
VAT:             {{.TaxAmount.StringFixed 0}}
Total:           {{.TotalAmount.StringFixed 0}}

Payment method:  {{.PaymentMethod}}
{{- with .ShippingAddress}}
Ship to:         {{.FullName}}, {{.Line1}}{{if .Line2}}, {{.Line2}}{{end}}, {{.City}}{{end}}
Estimated delivery: {{.DeliveryFrom}} - {{.DeliveryTo}}

We will let you know when your order ships.
`))

type confirmationView struct {
	entity.OrderPlaced
	DeliveryFrom string
	DeliveryTo   string
}

// OrderConfirmation renders the confirmation email for a placed order.
func OrderConfirmation(e entity.OrderPlaced) (Message, error) {
	from, to := DeliveryEstimate(e.ShippingMethod, e.PlacedAt)

	var body bytes.Buffer
	err := confirmationTmpl.Execute(&body, confirmationView{
		OrderPlaced:  e,
		DeliveryFrom: from.Format("Jan 2"),
		DeliveryTo:   to.Format("Jan 2, 2006"),
	})
	if err != nil {
		return Message{}, fmt.Errorf("failed to render confirmation for %s: %w", e.OrderNumber, err)
	}

	return Message{
		To:      e.CustomerEmail,
		Subject: fmt.Sprintf("Order %s confirmed", e.OrderNumber),
		Body:    body.String(),
	}, nil
}
