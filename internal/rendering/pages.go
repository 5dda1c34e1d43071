package rendering

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/jonathan/screening-desk/internal/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// ScreeningPage is the data for the screening table page.
type ScreeningPage struct {
	BasePath string
	View     View
	Notices  []types.Notice
}

// InterviewPage is the data for the new-interview form.
type InterviewPage struct {
	Action    string
	BackURL   string
	DeskURL   string
	CanCreate bool
	Draft     *types.InterviewDraft
	Notices   []types.Notice
}

// ImportButton is an action button on the import form.
type ImportButton struct {
	Label   string
	Action  string
	Primary bool
	Enabled bool
	Hint    string
}

// ImportPage is the data for the Slack To Raven Import form.
type ImportPage struct {
	BasePath string
	Job      *types.ImportJob
	Buttons  []ImportButton
	Notices  []types.Notice
}

// Pages renders the service's HTML pages.
type Pages struct {
	tmpl *template.Template
}

// LoadPages parses the embedded page templates.
func LoadPages() (*Pages, error) {
	tmpl, err := template.New("pages").Funcs(template.FuncMap{
		"dict": dict,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, &TemplateError{
			Message: "failed to parse page templates",
			Cause:   err,
		}
	}
	return &Pages{tmpl: tmpl}, nil
}

// Screening writes the screening page.
func (p *Pages) Screening(w io.Writer, data ScreeningPage) error {
	return p.execute(w, "screening", data)
}

// Interview writes the new-interview form.
func (p *Pages) Interview(w io.Writer, data InterviewPage) error {
	return p.execute(w, "interview", data)
}

// Import writes the import form.
func (p *Pages) Import(w io.Writer, data ImportPage) error {
	return p.execute(w, "import", data)
}

func (p *Pages) execute(w io.Writer, name string, data any) error {
	if err := p.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return &TemplateError{
			Message: fmt.Sprintf("failed to execute template %s", name),
			Cause:   err,
		}
	}
	return nil
}

// dict builds a map from alternating keys and values for sub-template calls.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, &RenderError{Message: "dict requires an even number of arguments"}
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, &RenderError{Message: fmt.Sprintf("dict key %v is not a string", pairs[i])}
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}
