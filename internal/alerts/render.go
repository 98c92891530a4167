package alerts

import (
	"fmt"
	"strings"

	"stockwatch/internal/models"
)

// Message is a rendered alert, shared by every channel.
type Message struct {
	Subject string
	Body    string
}

type alertView struct {
	Shop      string
	Title     string
	SKU       string
	ProductID int64
	Kind      models.AlertKind
	Quantity  int
	Threshold int
}

func render(v alertView) Message {
	name := v.Title
	if name == "" {
		name = fmt.Sprintf("Product %d", v.ProductID)
	}

	var subject, headline string
	switch v.Kind {
	case models.AlertOutOfStock:
		subject = fmt.Sprintf("Out of stock: %s", name)
		headline = fmt.Sprintf("%s has sold out.", name)
	case models.AlertLowStock:
		subject = fmt.Sprintf("Low stock: %s (%d left)", name, v.Quantity)
		headline = fmt.Sprintf("%s is down to %d units, at or below your threshold of %d.", name, v.Quantity, v.Threshold)
	case models.AlertRestock:
		subject = fmt.Sprintf("Back in stock: %s", name)
		headline = fmt.Sprintf("%s is back in stock with %d units.", name, v.Quantity)
	default:
		subject = fmt.Sprintf("Stock update: %s", name)
		headline = fmt.Sprintf("%s now has %d units.", name, v.Quantity)
	}

	var b strings.Builder
	b.WriteString(headline)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Store: %s\n", v.Shop)
	fmt.Fprintf(&b, "Product ID: %d\n", v.ProductID)
	if v.SKU != "" {
		fmt.Fprintf(&b, "SKU: %s\n", v.SKU)
	}
	fmt.Fprintf(&b, "Current quantity: %d\n", v.Quantity)

	return Message{Subject: subject, Body: b.String()}
}

// chatText is the one-line form used for chat channels.
func (m Message) chatText() string {
	return fmt.Sprintf("*%s*\n%s", m.Subject, m.Body)
}
