package form

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Kind selects how a field's raw value is parsed.
type Kind int

const (
	KindText Kind = iota
	KindDecimal
)

// Field describes one input of a form.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Required bool
	MaxLen   int              // text only, 0 = unlimited
	Min      *decimal.Decimal // decimal only
	Max      *decimal.Decimal // decimal only
	Places   int32            // decimal only, digits after the point, 0 = unlimited
}

// Form is an ordered set of fields validated together.
type Form struct {
	Name   string
	Fields []Field
}

// ValidationError maps field names to their problems.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[name], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Submission holds the raw and parsed values of one validated post.
type Submission struct {
	Raw      map[string]string
	decimals map[string]decimal.Decimal
	Errors   map[string][]string
}

// Valid reports whether no field failed validation.
func (s *Submission) Valid() bool {
	return len(s.Errors) == 0
}

// Text returns the trimmed value of a field.
func (s *Submission) Text(name string) string {
	return s.Raw[name]
}

// Decimal returns the parsed value of a KindDecimal field.
func (s *Submission) Decimal(name string) decimal.Decimal {
	return s.decimals[name]
}

// FirstError returns the first message for a field, or "".
func (s *Submission) FirstError(name string) string {
	if msgs := s.Errors[name]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Validate checks values against every field. The returned error is a
// *ValidationError when any field failed; the Submission is always usable
// for re-rendering.
func (f Form) Validate(values url.Values) (*Submission, error) {
	sub := &Submission{
		Raw:      make(map[string]string, len(f.Fields)),
		decimals: make(map[string]decimal.Decimal),
	}
	verr := &ValidationError{}

	for _, field := range f.Fields {
		raw := strings.TrimSpace(values.Get(field.Name))
		sub.Raw[field.Name] = raw

		if raw == "" {
			if field.Required {
				verr.add(field.Name, "This field is required.")
			}
			continue
		}

		switch field.Kind {
		case KindText:
			if field.MaxLen > 0 && utf8.RuneCountInString(raw) > field.MaxLen {
				verr.add(field.Name, fmt.Sprintf("Must be at most %d characters.", field.MaxLen))
			}
		case KindDecimal:
			d, err := decimal.NewFromString(raw)
			if err != nil {
				verr.add(field.Name, "Not a valid decimal value.")
				continue
			}
			if field.Places > 0 && !d.Equal(d.Truncate(field.Places)) {
				verr.add(field.Name, fmt.Sprintf("Use at most %d decimal places.", field.Places))
				continue
			}
			if field.Min != nil && d.LessThan(*field.Min) {
				verr.add(field.Name, fmt.Sprintf("Must be at least %s.", field.Min.String()))
				continue
			}
			if field.Max != nil && d.GreaterThan(*field.Max) {
				verr.add(field.Name, fmt.Sprintf("Must be at most %s.", field.Max.String()))
				continue
			}
			sub.decimals[field.Name] = d
		}
	}

	if len(verr.Fields) > 0 {
		sub.Errors = verr.Fields
		return sub, verr
	}
	return sub, nil
}

// Empty returns a Submission with no values, used to render a blank form.
func (f Form) Empty() *Submission {
	return &Submission{Raw: map[string]string{}, decimals: map[string]decimal.Decimal{}}
}

var (
	minRating = decimal.Zero
	maxRating = decimal.NewFromInt(10)
)

const (
	AddMovieFormName  = "add_movie"
	EditMovieFormName = "edit_movie"
)

// AddMovieForm asks for the title to search for.
func AddMovieForm() Form {
	return Form{
		Name: AddMovieFormName,
		Fields: []Field{
			{Name: "movieTitle", Label: "Movie Title", Kind: KindText, Required: true, MaxLen: 250},
		},
	}
}

// EditMovieForm collects the user's rating and review.
func EditMovieForm() Form {
	return Form{
		Name: EditMovieFormName,
		Fields: []Field{
			{Name: "rating", Label: "Your rating out of 10 e.g. 9.5", Kind: KindDecimal, Required: true, Min: &minRating, Max: &maxRating, Places: 2},
			{Name: "review", Label: "Your Review", Kind: KindText, Required: true, MaxLen: 250},
		},
	}
}
