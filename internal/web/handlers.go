// Package web serves the operator console: a chi router over the console
// controller, rendered with the view package.  Every POST answers with a
// redirect back to a page (post/redirect/get) except where the response
// itself carries the result, such as a rejected form or a probe.
package web

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/dbconsole/internal/backend"
	"github.com/yanizio/dbconsole/internal/clipboard"
	"github.com/yanizio/dbconsole/internal/console"
	"github.com/yanizio/dbconsole/internal/csrf"
	"github.com/yanizio/dbconsole/internal/middleware"
	"github.com/yanizio/dbconsole/internal/notify"
	"github.com/yanizio/dbconsole/internal/probe"
	"github.com/yanizio/dbconsole/internal/timefmt"
	"github.com/yanizio/dbconsole/internal/view"
)

// Prober checks that an instance accepts connections.
type Prober interface {
	Ping(ctx context.Context, d backend.Detail) (probe.Result, error)
}

// Deps are the collaborators of the handler set.  Prober may be nil.
type Deps struct {
	Console *console.Console
	View    *view.Renderer
	CSRF    *csrf.Signer
	Copier  clipboard.Copier
	Prober  Prober
	Log     *zap.SugaredLogger

	// ReloadConfig re-reads configuration on POST /reload.  Optional.
	ReloadConfig func() error
}

const headerReloadConfig = "Error reloading configuration!"

type handlers struct {
	Deps
}

// NewRouter wires middleware and routes.
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.S()
	}
	if d.Copier == nil {
		d.Copier = clipboard.Disabled{}
	}
	h := &handlers{Deps: d}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(d.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Security)

	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(d.CSRF.Protect)

		r.Get("/", h.index)
		r.Post("/databases", h.create)
		r.Post("/reload", h.reload)
		r.Post("/notifications/{id}/dismiss", h.dismiss)

		r.Route("/databases/{template}/{name}", func(r chi.Router) {
			r.Get("/", h.inspect)
			r.Post("/delete", h.requestDelete)
			r.Post("/delete/approve", h.approveDelete)
			r.Post("/delete/deny", h.denyDelete)
			r.Post("/copy/{field}", h.copyField)
			r.Post("/probe", h.probe)
		})
	})
	return r
}

/*──────────────────────────── list + create ───────────────────────────────*/

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	h.renderIndex(w, http.StatusOK, formView{}, true)
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	form := formView{
		Template: r.PostForm.Get("template"),
		Name:     r.PostForm.Get("name"),
		Expiry:   r.PostForm.Get("expiry"),
	}

	in := console.CreateInput{
		Template: formValue(r, "template"),
		Name:     formValue(r, "name"),
	}
	if t, ok := timefmt.ParseSelection(form.Expiry, h.Console.Location()); ok {
		in.Expiry = &t
	}

	res := h.Console.CreateDatabase(r.Context(), in)
	switch res.Outcome {
	case console.OutcomeInvalid:
		form.Error = res.Err.Error()
		h.renderIndex(w, http.StatusUnprocessableEntity, form, false)
	case console.OutcomeBusy:
		form.Error = res.Err.Error()
		h.renderIndex(w, http.StatusConflict, form, false)
	default:
		// Created, conflict, and failed all clear the form; the latter two
		// are reported through the notification queue.
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (h *handlers) reload(w http.ResponseWriter, r *http.Request) {
	if h.ReloadConfig != nil {
		if err := h.ReloadConfig(); err != nil {
			h.Log.Warnw("configuration reload failed", "err", err)
			h.Console.Notifications().Push(headerReloadConfig, err.Error())
		}
	}
	h.View.Purge()
	if err := h.Console.Start(r.Context()); err != nil {
		h.Log.Warnw("reload incomplete", "err", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *handlers) dismiss(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.Console.Notifications().Dismiss(id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

/*──────────────────────────────── rows ────────────────────────────────────*/

func (h *handlers) inspect(w http.ResponseWriter, r *http.Request) {
	row, ok := h.row(w, r)
	if !ok {
		return
	}
	d, err := row.Inspect(r.Context())
	if err != nil {
		h.rowFailed(w, r, err)
		return
	}
	h.renderDetail(w, http.StatusOK, d, func(p *detailPage) {
		p.Refresh = h.refreshSeconds(p.Notifications)
	})
}

func (h *handlers) requestDelete(w http.ResponseWriter, r *http.Request) {
	h.rowIntent(w, r, func(_ context.Context, row *console.Row) error { return row.RequestDelete() })
}

func (h *handlers) approveDelete(w http.ResponseWriter, r *http.Request) {
	h.rowIntent(w, r, func(ctx context.Context, row *console.Row) error { return row.Approve(ctx) })
}

func (h *handlers) denyDelete(w http.ResponseWriter, r *http.Request) {
	h.rowIntent(w, r, func(_ context.Context, row *console.Row) error { return row.Deny() })
}

func (h *handlers) copyField(w http.ResponseWriter, r *http.Request) {
	row, ok := h.row(w, r)
	if !ok {
		return
	}
	d, err := row.Inspect(r.Context())
	if err != nil {
		h.rowFailed(w, r, err)
		return
	}
	f, ok := fieldValue(d, chi.URLParam(r, "field"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	status, flash := http.StatusOK, f.Label+" copied to clipboard."
	if err := h.Copier.Copy(f.Value); err != nil {
		h.Log.Warnw("clipboard copy failed", "field", f.Key, "err", err)
		status, flash = http.StatusServiceUnavailable, "Copy failed: "+err.Error()
	}
	h.renderDetail(w, status, d, func(p *detailPage) { p.Flash = flash })
}

func (h *handlers) probe(w http.ResponseWriter, r *http.Request) {
	if h.Prober == nil {
		http.NotFound(w, r)
		return
	}
	row, ok := h.row(w, r)
	if !ok {
		return
	}
	d, err := row.Inspect(r.Context())
	if err != nil {
		h.rowFailed(w, r, err)
		return
	}

	pv := &probeView{}
	res, err := h.Prober.Ping(r.Context(), d)
	if err != nil {
		h.Log.Infow("probe failed", "id", d.ID, "err", err)
		pv.Error = err.Error()
	} else {
		pv.OK, pv.Version, pv.ElapsedMS = true, res.Version, res.Elapsed.Milliseconds()
	}
	h.renderDetail(w, http.StatusOK, d, func(p *detailPage) { p.Probe = pv })
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// row resolves {template}/{name} to a live row controller or answers 404.
func (h *handlers) row(w http.ResponseWriter, r *http.Request) (*console.Row, bool) {
	name := chi.URLParam(r, "name")
	row, ok := h.Console.Row(name)
	if !ok || row.Record().Template != chi.URLParam(r, "template") {
		http.NotFound(w, r)
		return nil, false
	}
	return row, true
}

func (h *handlers) rowIntent(w http.ResponseWriter, r *http.Request, fn func(context.Context, *console.Row) error) {
	row, ok := h.row(w, r)
	if !ok {
		return
	}
	if err := fn(r.Context(), row); err != nil {
		h.rowFailed(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// rowFailed maps a row error to a response.  Backend failures were already
// pushed to the notification queue, so they simply return to the list.  A
// 404 from the backend means the instance vanished behind our back.
func (h *handlers) rowFailed(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, console.ErrBusy):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, console.ErrDestroyed), backend.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusGone)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (h *handlers) base(title string) page {
	tok, err := h.CSRF.Token()
	if err != nil {
		h.Log.Errorw("csrf token", "err", err)
	}
	return page{
		Title:         title,
		CSRF:          tok,
		Notifications: h.Console.Notifications().Active(),
	}
}

// renderIndex renders the list.  refresh is set only for GET responses: the
// page reloads itself once the oldest notification has expired.
func (h *handlers) renderIndex(w http.ResponseWriter, status int, form formView, refresh bool) {
	rows := h.Console.Rows()
	views := make([]rowView, 0, len(rows))
	for _, row := range rows {
		views = append(views, newRowView(row))
	}
	lo, hi := h.Console.ExpiryWindow()

	p := indexPage{
		page:           h.base("Databases"),
		Templates:      h.Console.Templates(),
		Rows:           views,
		Form:           form,
		SubmitDisabled: h.Console.SubmitDisabled(),
		ExpiryMin:      lo,
		ExpiryMax:      hi,
	}
	if refresh {
		p.Refresh = h.refreshSeconds(p.Notifications)
	}
	if err := h.View.Render(w, status, "index", p); err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func (h *handlers) renderDetail(w http.ResponseWriter, status int, d backend.Detail, mutate func(*detailPage)) {
	p := detailPage{
		page:         h.base(d.Name),
		Detail:       d,
		Path:         rowPath(d.Database),
		Fields:       copyFields(d),
		Clipboard:    !isDisabled(h.Copier),
		ProbeEnabled: h.Prober != nil,
	}
	if mutate != nil {
		mutate(&p)
	}
	if err := h.View.Render(w, status, "detail", p); err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

// refreshSeconds is how long until the oldest notification expires, or 0
// when none is visible.
func (h *handlers) refreshSeconds(active []notify.Notification) int {
	if len(active) == 0 {
		return 0
	}
	secs := int(math.Ceil(h.Console.Notifications().Timeout().Seconds()))
	return max(secs, 1)
}

// formValue returns nil when the key is absent from the form.  A field the
// browser sent empty is present, so it still reaches the length and
// membership rules.
func formValue(r *http.Request, key string) *string {
	vs, ok := r.PostForm[key]
	if !ok || len(vs) == 0 {
		return nil
	}
	v := vs[0]
	return &v
}

func isDisabled(c clipboard.Copier) bool {
	_, off := c.(clipboard.Disabled)
	return off
}
