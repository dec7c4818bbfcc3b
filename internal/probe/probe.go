// Package probe checks that an inspected instance accepts connections.
// The default driver is go-sql-driver/mysql, which also covers MariaDB
// templates.
//
// Public entry points:
//
//	New(opts)          – prober with driver and timeout.
//	(*Prober).Ping     – open, ping, and read the server version.
//	DSN(detail)        – DSN the prober dials for a detail.
//
// Each probe opens a single-connection pool and closes it before returning.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/dbconsole/internal/backend"
)

// ErrNoEndpoint is returned when the detail carries no host or port.
var ErrNoEndpoint = errors.New("database has no reachable endpoint")

// OpenFunc opens a pool.  Tests swap it for a sqlmock-backed opener.
type OpenFunc func(driver, dsn string) (*sqlx.DB, error)

// Options configures a Prober.
type Options struct {
	Driver  string
	Timeout time.Duration
	Open    OpenFunc
}

// Result is what a successful probe learned.
type Result struct {
	Version string
	Elapsed time.Duration
}

// Prober dials provisioned instances.
type Prober struct {
	driver  string
	timeout time.Duration
	open    OpenFunc
}

// New returns a Prober with conservative defaults: mysql driver, 5 s.
func New(opts Options) *Prober {
	p := &Prober{driver: opts.Driver, timeout: opts.Timeout, open: opts.Open}
	if p.driver == "" {
		p.driver = "mysql"
	}
	if p.timeout <= 0 {
		p.timeout = 5 * time.Second
	}
	if p.open == nil {
		p.open = sqlx.Open
	}
	return p
}

// DSN builds the connection string for d.
func DSN(d backend.Detail, timeout time.Duration) string {
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	cfg.DBName = d.DBName
	cfg.Timeout = timeout
	cfg.ReadTimeout = timeout
	return cfg.FormatDSN()
}

// Ping connects to d, pings it, and reads its version.
func (p *Prober) Ping(ctx context.Context, d backend.Detail) (Result, error) {
	if d.Host == "" || d.Port == 0 {
		return Result{}, ErrNoEndpoint
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	db, err := p.open(p.driver, DSN(d, p.timeout))
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", d.Name, err)
	}
	defer db.Close()

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)

	if err := db.PingContext(ctx); err != nil {
		return Result{}, fmt.Errorf("ping %s: %w", d.Name, err)
	}

	var version string
	if err := db.GetContext(ctx, &version, `SELECT VERSION()`); err != nil {
		return Result{}, fmt.Errorf("query version of %s: %w", d.Name, err)
	}
	return Result{Version: version, Elapsed: time.Since(start)}, nil
}
