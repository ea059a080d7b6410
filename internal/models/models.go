// Package models defines the core data types shared by the todo client.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID is an opaque, server-assigned identifier. Backends disagree on its
// JSON shape (Mongo-style hex strings, SQL integers), so it decodes from
// either and always encodes as a string.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("models.ID: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("models.ID: not a string or number: %s", b)
	}
	*id = ID(n.String())
	return nil
}

// String returns the raw identifier.
func (id ID) String() string { return string(id) }

// User is the profile returned alongside a session token.
type User struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// UnmarshalJSON accepts both "id" and "_id".
func (u *User) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID       ID     `json:"id"`
		MongoID  ID     `json:"_id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	u.ID = raw.ID
	if u.ID == "" {
		u.ID = raw.MongoID
	}
	u.Username = raw.Username
	u.Email = raw.Email
	return nil
}

// DisplayName is the username, falling back to the email.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// Session is the authenticated identity held by the client.
// It is replaced wholesale on login or register, never mutated in place.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Todo is one task record. The backend owns it; the client caches a copy.
type Todo struct {
	ID        ID     `json:"_id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// UnmarshalJSON accepts both "_id" and "id".
func (t *Todo) UnmarshalJSON(b []byte) error {
	var raw struct {
		MongoID   ID     `json:"_id"`
		ID        ID     `json:"id"`
		Text      string `json:"text"`
		Completed bool   `json:"completed"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	t.ID = raw.MongoID
	if t.ID == "" {
		t.ID = raw.ID
	}
	t.Text = raw.Text
	t.Completed = raw.Completed
	return nil
}

// Counts are the list statistics derived on every render.
type Counts struct {
	Total     int
	Completed int
	Remaining int
}

// CountsOf derives Counts from todos. Completed+Remaining always equals Total.
func CountsOf(todos []Todo) Counts {
	var c Counts
	for _, t := range todos {
		if t.Completed {
			c.Completed++
		}
	}
	c.Total = len(todos)
	c.Remaining = c.Total - c.Completed
	return c
}

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"` // #nosec G117 -- login form field sent to the configured backend
}

// Missing returns the names of empty required fields.
func (c Credentials) Missing() []string {
	return missing(map[string]string{"email": c.Email, "password": c.Password}, "email", "password")
}

// Registration is the register form.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"` // #nosec G117 -- register form field sent to the configured backend
}

// Missing returns the names of empty required fields.
func (r Registration) Missing() []string {
	return missing(map[string]string{"username": r.Username, "email": r.Email, "password": r.Password},
		"username", "email", "password")
}

func missing(fields map[string]string, order ...string) []string {
	var out []string
	for _, name := range order {
		if strings.TrimSpace(fields[name]) == "" {
			out = append(out, name)
		}
	}
	return out
}
