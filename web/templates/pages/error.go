package pages

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

type ErrorPageProps struct {
	ErrorTitle   string
	ErrorMessage string
	BackLink     string
	BackText     string
}

func ErrorPage(props ErrorPageProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		document(&b, props.ErrorTitle, func(b *strings.Builder) {
			b.WriteString(`<div class="card"><h2>`)
			b.WriteString(templ.EscapeString(props.ErrorTitle))
			b.WriteString(`</h2><p>`)
			b.WriteString(templ.EscapeString(props.ErrorMessage))
			b.WriteString(`</p>`)
			if props.BackLink != "" {
				text := props.BackText
				if text == "" {
					text = "Go back"
				}
				b.WriteString(`<a href="`)
				b.WriteString(templ.EscapeString(props.BackLink))
				b.WriteString(`">`)
				b.WriteString(templ.EscapeString(text))
				b.WriteString(`</a>`)
			}
			b.WriteString(`</div>`)
		})
		_, err := io.WriteString(w, b.String())
		return err
	})
}
