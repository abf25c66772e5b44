// internal/app/features/connections/templates.go
package connections

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "connections",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
