// Package order formats outbound WhatsApp messages for the storefront:
// the order summary built from the cart and the contact-form message.
package order

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/talkincode/papeleria/internal/domain"
)

const separador = "━━━━━━━━━━━━━━━━━"

// Message renders the order summary sent as a WhatsApp text body: one
// numbered block per line with quantity, unit price, package contents
// and subtotal, followed by the grand total.
func Message(lines []domain.CartLine) string {
	var b strings.Builder
	b.WriteString("🛒 *NUEVO PEDIDO*\n\n")
	total := 0.0
	for i, item := range lines {
		subtotal := item.Subtotal()
		total += subtotal
		fmt.Fprintf(&b, "%d. *%s*\n   Cantidad: %d\n   Precio unitario: $%.2f\n",
			i+1, item.Nombre, item.Cantidad, item.Precio)
		if len(item.Items) > 0 {
			fmt.Fprintf(&b, "   Contenido:\n   - %s\n", strings.Join(item.Items, "\n   - "))
		}
		fmt.Fprintf(&b, "   Subtotal: $%.2f\n\n", subtotal)
	}
	fmt.Fprintf(&b, "%s\n*Total: $%.2f*\n%s\n\n¿Cuándo te gustaría recibir tu pedido?",
		separador, total, separador)
	return b.String()
}

// ContactMessage renders the contact-form message body.
func ContactMessage(nombre, email, mensaje string) string {
	return fmt.Sprintf("📩 *CONTACTO WEB*\n\nNombre: %s\nCorreo: %s\nMensaje: %s",
		nombre, email, mensaje)
}

// Link builds the wa.me URL carrying text to the given recipient
// number. A leading + in the number is dropped per the wa.me contract.
func Link(number, text string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s",
		strings.TrimPrefix(number, "+"), url.QueryEscape(text))
}
