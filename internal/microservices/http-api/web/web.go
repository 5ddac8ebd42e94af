// Package web holds the HTML pages of the movie list, embedded into the
// binary and rendered through gin.
package web

import (
	"embed"
	"html/template"

	"topmovies/internal/microservices/http-api/form"
	"topmovies/internal/microservices/http-api/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// FieldView is what the "field" template renders: one input plus the
// submission it is read back from.
type FieldView struct {
	Field form.Field
	Sub   *form.Submission
}

func FuncMap() template.FuncMap {
	return template.FuncMap{
		"ratingText": RatingText,
		"fieldView": func(f form.Field, sub *form.Submission) FieldView {
			if sub == nil {
				sub = &form.Submission{Raw: map[string]string{}}
			}
			return FieldView{Field: f, Sub: sub}
		},
	}
}

// Templates parses every page. Page templates are named by file name
// ("index.html", "edit.html", ...).
func Templates() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.html")
}

// RatingText renders a rating as shown on the list.
func RatingText(m models.Movie) string {
	if !m.Rated() {
		return "Not rated yet"
	}
	return m.Rating.Decimal.String() + "/10"
}
