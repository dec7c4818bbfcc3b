package backend

import (
	"encoding/json"
	"fmt"
)

// Template is a named configuration an instance is provisioned from.
type Template struct {
	Name string `json:"name"`
}

// UnmarshalJSON accepts both the bare string form the registry service sends
// ("mysql-small") and the object form ({"name": "mysql-small"}).
func (t *Template) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		t.Name = name
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("decode template: %w", err)
	}
	t.Name = obj.Name
	return nil
}

// Database is the list-view record of a provisioned instance.  It never
// carries connection details; those are only available through Detail.
type Database struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Template  string `json:"template"`
	TTL       int64  `json:"ttl,omitempty"`
	Created   int64  `json:"created,omitempty"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
}

// NewDatabase returns a record whose ID mirrors its name.
func NewDatabase(template, name string) Database {
	return Database{ID: name, Name: name, Template: template}
}

// UnmarshalJSON drops any sensitive keys the backend includes in list
// payloads and forces ID == Name.
func (d *Database) UnmarshalJSON(b []byte) error {
	var wire struct {
		Name      string `json:"name"`
		Template  string `json:"template"`
		TTL       int64  `json:"ttl"`
		Created   int64  `json:"created"`
		ExpiresAt int64  `json:"expires_at"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return fmt.Errorf("decode database: %w", err)
	}
	*d = Database{
		ID:        wire.Name,
		Name:      wire.Name,
		Template:  wire.Template,
		TTL:       wire.TTL,
		Created:   wire.Created,
		ExpiresAt: wire.ExpiresAt,
	}
	return nil
}

// Detail is the full inspect response for one instance.
type Detail struct {
	Database
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	State    string
	Running  bool
}

// detailWire is the inspect body.  Older registry builds report the
// container state under "status" rather than "state".
type detailWire struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"database"`
	State    string `json:"state"`
	Status   string `json:"status"`
	Running  bool   `json:"running"`
}

func (w detailWire) detail(db Database) Detail {
	state := w.State
	if state == "" {
		state = w.Status
	}
	return Detail{
		Database: db,
		Host:     w.Host,
		Port:     w.Port,
		User:     w.User,
		Password: w.Password,
		DBName:   w.DBName,
		State:    state,
		Running:  w.Running,
	}
}

// CreateRequest is the body sent when provisioning an instance.
type CreateRequest struct {
	Name     string `json:"name"`
	Template string `json:"template"`
	TTL      int64  `json:"ttl"`
}

type templatesResponse struct {
	Templates []Template `json:"templates"`
}

type databasesResponse struct {
	Databases []Database `json:"databases"`
}

// statusBody is the error envelope the registry uses for 4xx/5xx replies.
type statusBody struct {
	Status string `json:"status"`
}
