package models

import (
	"encoding/json"
	"fmt"
)

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	Subject           string `json:"sub"`
	Email             string `json:"email,omitempty"`
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
}

// ProviderUser is the user object returned by the identity provider's
// current-user endpoint.
type ProviderUser struct {
	PK       FlexibleID `json:"pk"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Name     string     `json:"name"`
}

// Identity maps the provider user onto session identity claims.
func (u ProviderUser) Identity() Identity {
	return Identity{
		Subject:           string(u.PK),
		Email:             u.Email,
		Name:              u.Name,
		PreferredUsername: u.Username,
	}
}

// FlexibleID decodes an identifier that may be encoded as a JSON number or string.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid identifier %s: %w", data, err)
	}
	*id = FlexibleID(n.String())
	return nil
}
