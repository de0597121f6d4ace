package pages

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestRedirectFormRendersEveryField(t *testing.T) {
	html := render(t, RedirectForm(RedirectFormProps{
		Action: "https://gw.test/order/process",
		Fields: map[string]string{
			"ORDER_ID":     "ORDER_1",
			"TXN_AMOUNT":   "10.00",
			"CHECKSUMHASH": "abc",
			"EMAIL":        `"><script>x</script>`,
		},
	}))

	assert.Contains(t, html, `action="https://gw.test/order/process"`)
	assert.Contains(t, html, `name="ORDER_ID" value="ORDER_1"`)
	assert.Contains(t, html, `name="CHECKSUMHASH" value="abc"`)
	assert.NotContains(t, html, `<script>x</script>`)
	assert.Less(t, strings.Index(html, "CHECKSUMHASH"), strings.Index(html, "ORDER_ID"))
	assert.Contains(t, html, "gatewayForm').submit()")
}

func TestSessionExpired(t *testing.T) {
	html := render(t, SessionExpired("http://shop.test/checkout"))
	assert.Contains(t, html, "Payment session expired or not found.")
	assert.Contains(t, html, `href="http://shop.test/checkout"`)
}

func TestErrorPage(t *testing.T) {
	html := render(t, ErrorPage(ErrorPageProps{ErrorTitle: "Page Not Found", ErrorMessage: "Nothing here <b>"}))
	assert.Contains(t, html, "<h2>Page Not Found</h2>")
	assert.Contains(t, html, "Nothing here &lt;b&gt;")
	assert.NotContains(t, html, "<a href")
}
