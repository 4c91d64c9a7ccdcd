package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
)

// StringArray stores an ordered list of strings as a JSON text column, which
// works the same on PostgreSQL, MySQL and SQLite. Order is preserved.
type StringArray []string

// Scan implements the sql.Scanner interface for reading from the database.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return a.scanText(string(v))
	case string:
		return a.scanText(v)
	default:
		return errors.New("StringArray: unsupported scan type")
	}
}

func (a *StringArray) scanText(s string) error {
	if strings.HasPrefix(strings.TrimSpace(s), "[") {
		return json.Unmarshal([]byte(s), a)
	}
	if s == "" {
		*a = StringArray{}
		return nil
	}
	// not JSON: treat as a single item
	*a = StringArray{s}
	return nil
}

// Value implements the driver.Valuer interface for writing to the database.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return a.JSON()
}

// JSON returns the canonical JSON encoding, e.g. ["Amethyst","Ruby"].
func (a StringArray) JSON() (string, error) {
	if a == nil {
		a = StringArray{}
	}
	data, err := json.Marshal([]string(a))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GormDataType returns the GORM data type hint.
func (StringArray) GormDataType() string {
	return "text"
}
