package web

import (
	"strconv"
	"time"

	"github.com/yanizio/dbconsole/internal/backend"
	"github.com/yanizio/dbconsole/internal/console"
	"github.com/yanizio/dbconsole/internal/notify"
)

// page is embedded by every view model; layout.html reads these fields.
type page struct {
	Title         string
	CSRF          string
	Notifications []notify.Notification
	Refresh       int // seconds; 0 disables the meta refresh
}

type indexPage struct {
	page
	Templates      []string
	Rows           []rowView
	Form           formView
	SubmitDisabled bool
	ExpiryMin      time.Time
	ExpiryMax      time.Time
}

// formView echoes the creation form.  It is empty after every submission
// that reached the backend.
type formView struct {
	Template string
	Name     string
	Expiry   string
	Error    string
}

type rowView struct {
	ID         string
	Name       string
	Template   string
	Path       string
	Created    int64
	ExpiresAt  int64
	Confirming bool
	Busy       bool
}

func newRowView(r *console.Row) rowView {
	rec := r.Record()
	st := r.State()
	return rowView{
		ID:         rec.ID,
		Name:       rec.Name,
		Template:   rec.Template,
		Path:       rowPath(rec),
		Created:    rec.Created,
		ExpiresAt:  rec.ExpiresAt,
		Confirming: st == console.ConfirmPending,
		Busy:       st != console.Idle,
	}
}

type detailPage struct {
	page
	Detail       backend.Detail
	Path         string
	Fields       []fieldView
	Clipboard    bool
	ProbeEnabled bool
	Probe        *probeView
	Flash        string
}

type fieldView struct {
	Key   string
	Label string
	Value string
}

type probeView struct {
	OK        bool
	Version   string
	ElapsedMS int64
	Error     string
}

// copyFields lists the connection fields in display order.  The keys are
// the {field} segment of the copy route.
func copyFields(d backend.Detail) []fieldView {
	port := ""
	if d.Port != 0 {
		port = strconv.Itoa(d.Port)
	}
	return []fieldView{
		{Key: "host", Label: "Host", Value: d.Host},
		{Key: "port", Label: "Port", Value: port},
		{Key: "user", Label: "User", Value: d.User},
		{Key: "password", Label: "Password", Value: d.Password},
		{Key: "database", Label: "Database", Value: d.DBName},
	}
}

func fieldValue(d backend.Detail, key string) (fieldView, bool) {
	for _, f := range copyFields(d) {
		if f.Key == key {
			return f, true
		}
	}
	return fieldView{}, false
}

func rowPath(rec backend.Database) string {
	return backend.DatabasePath("/databases", rec.Template, rec.Name)
}
