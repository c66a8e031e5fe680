package server

import (
	_ "embed"
	"fmt"
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

//go:embed static/index.html
var statusPage []byte

// minifyPage shrinks the status page together with its inline style and
// script.
func minifyPage(page []byte) ([]byte, error) {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)

	out, err := m.Bytes("text/html", page)
	if err != nil {
		return nil, fmt.Errorf("failed to minify status page: %w", err)
	}
	return out, nil
}
