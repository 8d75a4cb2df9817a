package views

import (
	"embed"
	"html/template"
	"os"
	"strings"

	"github.com/phenrril/artfolio/internal/usecase"
)

//go:embed *.html
var FS embed.FS

const devDir = "internal/views"

// Parse loads the page templates. In development they are read from disk
// when the source tree is present so edits show up on restart.
func Parse(isDev bool) (*template.Template, error) {
	if isDev {
		if _, err := os.Stat(devDir); err == nil {
			return template.New("layout").Funcs(FuncMap()).ParseGlob(devDir + "/*.html")
		}
	}
	return template.New("layout").Funcs(FuncMap()).ParseFS(FS, "*.html")
}

func FuncMap() template.FuncMap {
	return template.FuncMap{
		"img": AssetURL,
		"fallbacks": func(chain usecase.ImageChain) string {
			rest := chain.Fallbacks()
			out := make([]string, 0, len(rest))
			for _, p := range rest {
				out = append(out, AssetURL(p))
			}
			return strings.Join(out, "|")
		},
		"price": usecase.FormatPrice,
	}
}

// AssetURL turns a stored image path into something a page can reference.
func AssetURL(u string) string {
	s := strings.TrimSpace(u)
	if s == "" {
		return s
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") && !strings.HasPrefix(s, "/") {
		s = "/" + s
	}
	return strings.ReplaceAll(s, " ", "%20")
}
