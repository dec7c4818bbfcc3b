package console

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yanizio/dbconsole/internal/backend"
)

func rowFixture(t *testing.T, be *fakeBackend) (*fixture, *Row) {
	t.Helper()
	be.databases = []backend.Database{{Name: "X1", Template: "t1"}}
	f := newFixture(t, be)
	r, ok := f.console.Row("X1")
	if !ok {
		t.Fatal("row not created")
	}
	return f, r
}

func TestRow_InspectReturnsToIdle(t *testing.T) {
	_, r := rowFixture(t, &fakeBackend{})

	d, err := r.Inspect(context.Background())
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if d.Host != "db.local" || d.Password != "pw" || d.Name != "X1" {
		t.Fatalf("detail = %#v", d)
	}
	if r.State() != Idle {
		t.Fatalf("state = %v, want idle", r.State())
	}
}

func TestRow_InspectFailureNotifies(t *testing.T) {
	f, r := rowFixture(t, &fakeBackend{readErr: &backend.APIError{StatusCode: 404, Detail: "Not found"}})

	if _, err := r.Inspect(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if r.State() != Idle {
		t.Fatalf("state = %v, want idle", r.State())
	}
	active := f.notes.Active()
	if len(active) != 1 || active[0].Header != "Error inspecting database!" || active[0].Message != "Not found" {
		t.Fatalf("notifications = %+v", active)
	}
}

func TestRow_DeleteApproved(t *testing.T) {
	f, r := rowFixture(t, &fakeBackend{})

	if err := r.RequestDelete(); err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}
	if r.State() != ConfirmPending {
		t.Fatalf("state = %v", r.State())
	}
	if _, err := r.Inspect(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("inspect while confirming = %v, want ErrBusy", err)
	}

	if err := r.Approve(context.Background()); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, ok := f.dbs.Get("X1"); ok {
		t.Fatal("record still registered after confirmed delete")
	}
	if !r.Destroyed() {
		t.Fatal("row not destroyed")
	}
	if _, ok := f.console.Row("X1"); ok {
		t.Fatal("console still tracks destroyed row")
	}
	if err := r.RequestDelete(); !errors.Is(err, ErrDestroyed) {
		t.Fatalf("intent on destroyed row = %v", err)
	}
}

func TestRow_DeleteDenied(t *testing.T) {
	f, r := rowFixture(t, &fakeBackend{})

	_ = r.RequestDelete()
	if err := r.Deny(); err != nil {
		t.Fatalf("Deny: %v", err)
	}
	if r.State() != Idle {
		t.Fatalf("state = %v", r.State())
	}
	if n := f.be.deleteCalls.Load(); n != 0 {
		t.Fatalf("delete calls = %d, want 0", n)
	}
	if err := r.Deny(); !errors.Is(err, ErrBusy) {
		t.Fatalf("Deny from idle = %v, want ErrBusy", err)
	}
}

func TestRow_DeleteFailureKeepsRecord(t *testing.T) {
	f, r := rowFixture(t, &fakeBackend{deleteErr: errors.New("connection reset")})

	_ = r.RequestDelete()
	if err := r.Approve(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := f.dbs.Get("X1"); !ok {
		t.Fatal("record removed despite failed delete")
	}
	if r.State() != Idle || r.Destroyed() {
		t.Fatalf("state = %v destroyed = %v", r.State(), r.Destroyed())
	}
	active := f.notes.Active()
	if len(active) != 1 || active[0].Header != "Error deleting database!" {
		t.Fatalf("notifications = %+v", active)
	}
}

func TestRow_ApproveWithoutConfirm(t *testing.T) {
	f, r := rowFixture(t, &fakeBackend{})
	if err := r.Approve(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("Approve from idle = %v, want ErrBusy", err)
	}
	if n := f.be.deleteCalls.Load(); n != 0 {
		t.Fatalf("delete calls = %d, want 0", n)
	}
}

func TestRow_NotificationExpires(t *testing.T) {
	f, r := rowFixture(t, &fakeBackend{readErr: errors.New("timeout")})
	_, _ = r.Inspect(context.Background())
	if len(f.notes.Active()) != 1 {
		t.Fatal("expected one notification")
	}

	f.clock.Add(3 * time.Second)
	deadline := time.Now().Add(2 * time.Second)
	for len(f.notes.Active()) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("notification did not expire")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
