// internal/registry/templates.go
//
// In-memory set of instance templates.
//
// Context
// -------
// Templates are fetched once at startup and then read synchronously by the
// validator.  There is no update or delete; a failed fetch leaves the set
// empty and the operator reloads.  Concurrent loads collapse into a single
// backend call through singleflight, the same barrier the tenant cache used
// for cold loads.
package registry

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/dbconsole/internal/backend"
)

// TemplateSource lists templates.  *backend.Client satisfies it.
type TemplateSource interface {
	ListTemplates(ctx context.Context) ([]backend.Template, error)
}

// Templates is the template registry.  The zero value is not usable;
// construct with NewTemplates.
type Templates struct {
	src TemplateSource
	log *zap.SugaredLogger
	sfg singleflight.Group

	mu    sync.RWMutex
	names []string
	set   map[string]struct{}
}

// NewTemplates returns an empty registry backed by src.
func NewTemplates(src TemplateSource, log *zap.SugaredLogger) *Templates {
	if log == nil {
		log = zap.S()
	}
	return &Templates{src: src, log: log, set: map[string]struct{}{}}
}

// LoadAll replaces the set with the registry's current templates.  On error
// the set is emptied and the error returned; there is no retry.
func (t *Templates) LoadAll(ctx context.Context) error {
	_, err, _ := t.sfg.Do("load", func() (any, error) {
		list, err := t.src.ListTemplates(ctx)
		if err != nil {
			t.replace(nil)
			t.log.Errorw("template load failed", "err", err)
			return nil, err
		}
		t.replace(list)
		t.log.Infow("templates loaded", "count", len(list))
		return nil, nil
	})
	return err
}

func (t *Templates) replace(list []backend.Template) {
	names := make([]string, 0, len(list))
	set := make(map[string]struct{}, len(list))
	for _, tpl := range list {
		if _, dup := set[tpl.Name]; dup {
			continue
		}
		set[tpl.Name] = struct{}{}
		names = append(names, tpl.Name)
	}
	t.mu.Lock()
	t.names = names
	t.set = set
	t.mu.Unlock()
}

// Has reports whether name is a known template.
func (t *Templates) Has(name string) bool {
	t.mu.RLock()
	_, ok := t.set[name]
	t.mu.RUnlock()
	return ok
}

// Names returns template names in fetch order.
func (t *Templates) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Len reports how many templates are loaded.
func (t *Templates) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.names)
}
