package pages

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"
)

// RedirectFormProps describes the auto-submitting hand-off form
type RedirectFormProps struct {
	Action string
	Fields map[string]string
}

// RedirectForm renders every signed field as a hidden input and submits on load
func RedirectForm(props RedirectFormProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		keys := make([]string, 0, len(props.Fields))
		for k := range props.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var b strings.Builder
		document(&b, "Redirecting to payment", func(b *strings.Builder) {
			b.WriteString(`<div class="card"><div class="spinner"></div>`)
			b.WriteString(`<h2>Redirecting to payment</h2><p>Please wait, do not close this window...</p></div>`)
			b.WriteString(`<form id="gatewayForm" method="POST" action="`)
			b.WriteString(templ.EscapeString(props.Action))
			b.WriteString(`">`)
			for _, k := range keys {
				b.WriteString(`<input type="hidden" name="`)
				b.WriteString(templ.EscapeString(k))
				b.WriteString(`" value="`)
				b.WriteString(templ.EscapeString(props.Fields[k]))
				b.WriteString(`">`)
			}
			b.WriteString(`<noscript><button type="submit">Continue to payment</button></noscript></form>`)
			b.WriteString(`<script>document.getElementById('gatewayForm').submit();</script>`)
		})
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// SessionExpired is shown when the redirect link was already used or timed out
func SessionExpired(checkoutURL string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		document(&b, "Payment session expired", func(b *strings.Builder) {
			b.WriteString(`<div class="card"><h2>Payment session expired or not found.</h2>`)
			b.WriteString(`<p>Please go back and try again.</p>`)
			b.WriteString(`<a href="`)
			b.WriteString(templ.EscapeString(checkoutURL))
			b.WriteString(`">Back to Checkout</a></div>`)
		})
		_, err := io.WriteString(w, b.String())
		return err
	})
}
