package page

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// OverlayID is the id of the overlay root element.
const OverlayID = "phishguard-modal"

var overlayTmpl = template.Must(template.New("overlay").Parse(`<div id="phishguard-modal" data-state="{{.State}}">
<div class="phishguard-modal-content" style="background: {{.Palette.Background}}; border-color: {{.Palette.Border}};">
{{- if eq .State.String "loading"}}
<div class="phishguard-spinner"></div>
{{- else}}
<div class="phishguard-icon" style="color: {{.Palette.Text}};">{{.Icon}}</div>
{{- end}}
<h2 style="color: {{.Palette.Text}};">{{.Title}}</h2>
{{- if .Subtitle}}
<p>{{.Subtitle}}</p>
{{- end}}
<div class="phishguard-url">{{.URL}}</div>
{{- if .Recommendations}}
<div class="phishguard-recommendations">
{{- range .Recommendations}}
<div class="phishguard-rec">• {{.}}</div>
{{- end}}
</div>
{{- end}}
{{- if .Buttons}}
<div class="phishguard-buttons">
{{- range .Buttons}}
<button class="phishguard-btn phishguard-btn-{{.Style}}" data-action="{{.Kind}}">{{.Label}}</button>
{{- end}}
</div>
{{- end}}
</div>
</div>`))

// WriteOverlay renders v as overlay markup. Page-supplied strings are escaped.
func WriteOverlay(w io.Writer, v View) error {
	if err := overlayTmpl.Execute(w, v); err != nil {
		return fmt.Errorf("render overlay: %w", err)
	}
	return nil
}

// HTMLRenderer mounts the overlay markup into a Document's body.
type HTMLRenderer struct {
	mu  sync.Mutex
	doc *Document
	// Err holds the last mount failure, if any.
	Err error
}

func NewHTMLRenderer(doc *Document) *HTMLRenderer {
	return &HTMLRenderer{doc: doc}
}

func (r *HTMLRenderer) Mount(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	body := r.doc.Body()
	if body == nil {
		r.Err = fmt.Errorf("mount overlay: document has no body")
		return
	}
	var buf bytes.Buffer
	if err := WriteOverlay(&buf, v); err != nil {
		r.Err = err
		return
	}
	nodes, err := html.ParseFragment(&buf, body)
	if err != nil {
		r.Err = fmt.Errorf("mount overlay: %w", err)
		return
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
}

func (r *HTMLRenderer) Unmount() {
	r.mu.Lock()
	defer r.mu.Unlock()

	goquery.NewDocumentFromNode(r.doc.Root).Find("#" + OverlayID).Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	})
}
