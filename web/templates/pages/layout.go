package pages

import (
	"strings"

	"github.com/a-h/templ"
)

const baseStyle = `body{font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',sans-serif;display:flex;justify-content:center;align-items:center;min-height:100vh;margin:0;background:#f5f5f5}
.card{text-align:center;padding:48px;background:#fff;border-radius:12px;box-shadow:0 2px 12px rgba(0,0,0,.08);max-width:420px}
h2{color:#333;margin-bottom:8px}p{color:#666}a{color:#00b9f5}
.spinner{width:40px;height:40px;border:4px solid #e0e0e0;border-top:4px solid #00b9f5;border-radius:50%;animation:spin .8s linear infinite;margin:0 auto 20px}
@keyframes spin{to{transform:rotate(360deg)}}`

// document wraps body in the shared HTML shell
func document(b *strings.Builder, title string, body func(*strings.Builder)) {
	b.WriteString("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\">")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
	b.WriteString("<title>")
	b.WriteString(templ.EscapeString(title))
	b.WriteString("</title><style>")
	b.WriteString(baseStyle)
	b.WriteString("</style></head><body>")
	body(b)
	b.WriteString("</body></html>")
}
