// Package message renders the outgoing order text and the deep links that
// carry it. Everything here is pure: equal input gives byte-identical output.
package message

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"quickorder/internal/domain"
)

const (
	currency = "₹"

	messagingBase    = "https://wa.me/"
	webMessagingBase = "https://web.whatsapp.com/send"
)

// UnitPrice parses the item's price text. Empty or unparseable prices count
// as zero.
func UnitPrice(it domain.CatalogItem) decimal.Decimal {
	p, err := decimal.NewFromString(strings.TrimSpace(it.Price))
	if err != nil {
		return decimal.Zero
	}
	return p
}

func LineTotal(it domain.CatalogItem) decimal.Decimal {
	return UnitPrice(it).Mul(decimal.NewFromFloat(it.Quantity))
}

// OrderTotal sums the line totals of the selected items.
func OrderTotal(items []domain.CatalogItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.Selected {
			total = total.Add(LineTotal(it))
		}
	}
	return total
}

// FormatQuantity prints the shortest form of q: 2, 0.5, 1.25.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// FormatAmount renders a money value with the currency glyph and two decimals.
func FormatAmount(d decimal.Decimal) string {
	return currency + d.StringFixed(2)
}

func formatLine(it domain.CatalogItem) string {
	qty := FormatQuantity(it.Quantity)
	return fmt.Sprintf("  • %s (%s %s) - %s x %s = %s",
		it.Name, qty, it.Unit.Label(), FormatAmount(UnitPrice(it)), qty, FormatAmount(LineTotal(it)))
}

// GenerateOrderMessage builds the order text for the selected items, or ""
// when nothing is selected.
func GenerateOrderMessage(items []domain.CatalogItem, vendorName, restaurantName string) string {
	lines := make([]string, 0, len(items))
	total := decimal.Zero
	for _, it := range items {
		if !it.Selected {
			continue
		}
		lines = append(lines, formatLine(it))
		total = total.Add(LineTotal(it))
	}
	if len(lines) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Hello " + vendorName + " 👋\n\n")
	b.WriteString("Please send the following items:\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n*Total Amount: " + FormatAmount(total) + "*\n\n")
	b.WriteString("Thank you\n- " + restaurantName)
	return b.String()
}

// BuildMessagingURI returns the messaging deep link for phone with msg
// prefilled.
func BuildMessagingURI(phone, msg string) string {
	return messagingBase + phone + "?text=" + EncodeURIComponent(msg)
}

// BuildWebMessagingURI is the browser variant, used when the deep link
// cannot be opened.
func BuildWebMessagingURI(phone, msg string) string {
	return webMessagingBase + "?phone=" + EncodeURIComponent(phone) + "&text=" + EncodeURIComponent(msg)
}

// EncodeURIComponent percent-encodes s the way browsers do for a URI
// component: letters, digits and -_.!~*'() stay as they are, every other
// byte of the UTF-8 form becomes %XX. url.QueryEscape differs (space as '+',
// and it escapes !*'()), which changes what the recipient sees.
func EncodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
