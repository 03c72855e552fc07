package template

import (
	"bytes"
	"embed"
	"html/template"
)

//go:embed *.html
var files embed.FS

var templates = template.Must(template.ParseFS(files, "*.html"))

// Render executes the named mail template with the given data.
func Render(name string, data any) (string, error) {
	var buffer bytes.Buffer
	if err := templates.ExecuteTemplate(&buffer, name, data); err != nil {
		return "", err
	}

	return buffer.String(), nil
}
