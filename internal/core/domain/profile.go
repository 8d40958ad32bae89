package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Profile is the authenticated user's record as returned by the backend.
//
// The session core only cares whether a profile is present; the named
// fields are the ones the LinkHub API documents and Extra keeps the rest
// so nothing the server sent is lost on a round trip. ID is kept in its
// textual form whether the server sends a number or a string.
type Profile struct {
	ID       string         `json:"id"`
	Name     string         `json:"name,omitempty"`
	Email    string         `json:"email,omitempty"`
	Username string         `json:"username,omitempty"`
	Extra    map[string]any `json:"-"`
}

// UnmarshalJSON decodes the named fields and stashes unknown ones in Extra.
func (p *Profile) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	var out Profile
	for k, v := range raw {
		switch k {
		case "id":
			if v != nil {
				out.ID = fmt.Sprint(v)
			}
		case "name":
			out.Name, _ = v.(string)
		case "email":
			out.Email, _ = v.(string)
		case "username":
			out.Username, _ = v.(string)
		default:
			if out.Extra == nil {
				out.Extra = make(map[string]any)
			}
			out.Extra[k] = v
		}
	}

	*p = out
	return nil
}

// MarshalJSON encodes the named fields merged with Extra.
func (p Profile) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+4)
	for k, v := range p.Extra {
		out[k] = v
	}
	if p.ID != "" {
		if _, err := strconv.ParseInt(p.ID, 10, 64); err == nil {
			out["id"] = json.Number(p.ID)
		} else {
			out["id"] = p.ID
		}
	}
	if p.Name != "" {
		out["name"] = p.Name
	}
	if p.Email != "" {
		out["email"] = p.Email
	}
	if p.Username != "" {
		out["username"] = p.Username
	}
	return json.Marshal(out)
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that both fields are present.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return ErrInvalidArgument.WithDetails("email is required")
	}
	if c.Password == "" {
		return ErrInvalidArgument.WithDetails("password is required")
	}
	return nil
}

// Registration is the register payload.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// Validate checks that every field is present.
func (r Registration) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return ErrInvalidArgument.WithDetails("name is required")
	case strings.TrimSpace(r.Email) == "":
		return ErrInvalidArgument.WithDetails("email is required")
	case r.Password == "":
		return ErrInvalidArgument.WithDetails("password is required")
	case strings.TrimSpace(r.Username) == "":
		return ErrInvalidArgument.WithDetails("username is required")
	}
	return nil
}

// AuthResult is the body returned by the login and register endpoints.
type AuthResult struct {
	Token string   `json:"token"`
	User  *Profile `json:"user"`
}
