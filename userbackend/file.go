package userbackend

import (
	"encoding/json"
	"fmt"
	"os"
)

// UserRecord is a user entry as written in config or a seed file. The
// password is always stored as a bcrypt hash; use `gatehouse user hash` to
// produce one.
type UserRecord struct {
	Username     string `json:"username" mapstructure:"username"`
	PasswordHash string `json:"password_hash" mapstructure:"password_hash"`
	Disabled     bool   `json:"disabled" mapstructure:"disabled"`
}

// LoadUsersFromFile loads user records from a JSON file.
// The file should contain an array of records:
//
//	[
//	  {"username": "alice", "password_hash": "$2a$10$..."},
//	  {"username": "carol", "password_hash": "$2a$10$...", "disabled": true}
//	]
//
// Records without a username or hash are skipped.
func LoadUsersFromFile(path string) ([]UserRecord, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}

	var records []UserRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}

	valid := records[:0]
	for _, r := range records {
		if r.Username != "" && r.PasswordHash != "" {
			valid = append(valid, r)
		}
	}

	return valid, nil
}
