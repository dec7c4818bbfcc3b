// internal/view/render.go
//
// View engine: embedded templates, an optional override directory, the
// func-map, and an LRU of parsed template sets.
//
// Public helpers
// --------------
//   - Render         – buffer, then write HTML with a status code.
//   - RenderToString – return template.HTML (fragments, tests).
//   - Purge          – drop parsed sets so overrides are re-read.
//   - Reconfigure    – swap override dir and cache policy, then purge.
//
// Every page is parsed together with the shared partials in layout.html,
// so {{ template "notifications" . }} works from any page.  Files in the
// override directory are parsed after the embedded ones and replace any
// template with the same name.
//
// execName() picks "<page>.html" when the set has it, otherwise "<page>"
// for pages declared with {{ define }}.

package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/dbconsole/internal/cache"
	"github.com/yanizio/dbconsole/internal/timefmt"
)

//go:embed templates/*.html
var embedded embed.FS

// CachePolicy says whether parsed sets are kept.
type CachePolicy int

const (
	CacheDefault CachePolicy = iota // parse once per page
	CacheSkip                       // parse on every render (view.reload)
)

// Options configures a Renderer.
type Options struct {
	OverrideDir string
	Policy      CachePolicy
	Location    *time.Location
}

// settings is swapped whole by Reconfigure.
type settings struct {
	overrideDir string
	policy      CachePolicy
}

// Renderer renders the console pages.  Safe for concurrent use.
type Renderer struct {
	settings    atomic.Pointer[settings]
	funcs       template.FuncMap
	sets        *cache.LRU[string, *template.Template]
	log         *zap.SugaredLogger
}

// New returns a Renderer.  A nil log means zap.S().
func New(opts Options, log *zap.SugaredLogger) *Renderer {
	if log == nil {
		log = zap.S()
	}
	r := &Renderer{
		funcs: FuncMap(opts.Location),
		sets:  cache.New[string, *template.Template](16),
		log:   log,
	}
	r.settings.Store(&settings{overrideDir: opts.OverrideDir, policy: opts.Policy})
	return r
}

// Render executes page with data and writes it with status.  Nothing is
// written when execution fails, so the caller can still send an error.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	var buf bytes.Buffer
	if err := r.execute(&buf, page, data); err != nil {
		r.log.Errorw("render failed", "page", page, "err", err)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// RenderToString executes page and returns the HTML.
func (r *Renderer) RenderToString(page string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.execute(&buf, page, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Purge drops every parsed set.
func (r *Renderer) Purge() { r.sets.Purge() }

// Reconfigure applies a new override directory and cache policy.  Sets
// parsed under the old settings are dropped.
func (r *Renderer) Reconfigure(overrideDir string, policy CachePolicy) {
	r.settings.Store(&settings{overrideDir: overrideDir, policy: policy})
	r.sets.Purge()
	r.log.Infow("view reconfigured", "override_dir", overrideDir, "reload", policy == CacheSkip)
}

func (r *Renderer) execute(buf *bytes.Buffer, page string, data any) error {
	t, err := r.load(page)
	if err != nil {
		return err
	}
	return t.ExecuteTemplate(buf, execName(t, page), data)
}

//
// internal: load
//

func (r *Renderer) load(page string) (*template.Template, error) {
	cfg := r.settings.Load()
	if cfg.policy != CacheSkip {
		if t, ok := r.sets.Get(page); ok {
			return t, nil
		}
	}

	t, err := template.New(page).Funcs(r.funcs).ParseFS(embedded, "templates/layout.html", "templates/"+page+".html")
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", page, err)
	}

	if cfg.overrideDir != "" {
		files, err := CollectHTML(cfg.overrideDir)
		if err != nil {
			return nil, fmt.Errorf("scan overrides: %w", err)
		}
		if len(files) > 0 {
			if t, err = t.ParseFiles(files...); err != nil {
				return nil, fmt.Errorf("parse overrides: %w", err)
			}
			r.log.Debugw("template overrides applied", "page", page, "files", len(files))
		}
	}

	if cfg.policy != CacheSkip {
		r.sets.Add(page, t)
	}
	return t, nil
}

//
// func-map
//

// FuncMap returns the helpers every template may call.
func FuncMap(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"dict":        dict,
		"formatDate":  func(epoch int64) string { return timefmt.Format(epoch, loc) },
		"pickerValue": func(t time.Time) string { return timefmt.PickerValue(t, loc) },
	}
}

func execName(t *template.Template, name string) string {
	if tmpl := t.Lookup(name + ".html"); tmpl != nil {
		return name + ".html"
	}
	return name
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}
