package catalog

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/princekumarofficial/songs-service/internal/types/songs"
)

// Cursor marks the position after which the next page starts. Value holds
// the sort key value of the last song of the previous page (string, int64 or
// time.Time depending on the key). ID is that song's id and is only set for
// non-unique keys.
type Cursor struct {
	Key   SortKey
	Value any
	ID    int64
}

// CursorAt builds the cursor positioned on s for the given key
func CursorAt(key SortKey, s *songs.Song) Cursor {
	c := Cursor{Key: key, Value: key.ValueOf(s)}
	if !key.unique {
		c.ID = s.ID
	}
	return c
}

type wireCursor struct {
	Key   string          `json:"k"`
	Value json.RawMessage `json:"v"`
	ID    string          `json:"id,omitempty"`
}

// EncodeCursor serializes c into an opaque URL-safe token
func EncodeCursor(c Cursor) (string, error) {
	var (
		raw []byte
		err error
	)
	switch v := c.Value.(type) {
	case string:
		if c.Key.kind != kindString {
			return "", fmt.Errorf("cursor value for %s must not be a string", c.Key.name)
		}
		raw, err = json.Marshal(v)
	case int64:
		if c.Key.kind != kindInt {
			return "", fmt.Errorf("cursor value for %s must not be an integer", c.Key.name)
		}
		raw, err = json.Marshal(v)
	case time.Time:
		if c.Key.kind != kindTime {
			return "", fmt.Errorf("cursor value for %s must not be a time", c.Key.name)
		}
		raw, err = json.Marshal(v.UnixNano())
	default:
		return "", fmt.Errorf("unsupported cursor value type %T", c.Value)
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode cursor value: %w", err)
	}

	w := wireCursor{Key: c.Key.name, Value: raw}
	if !c.Key.unique {
		if c.ID <= 0 {
			return "", fmt.Errorf("cursor for %s requires an id", c.Key.name)
		}
		w.ID = strconv.FormatInt(c.ID, 10)
	}

	data, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("failed to encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeCursor parses a token produced by EncodeCursor. Any malformed input
// yields a *ValidationError.
func DecodeCursor(token string) (Cursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, invalid("cursor", "not a valid token")
	}

	var w wireCursor
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return Cursor{}, invalid("cursor", "not a valid token")
	}
	// Exactly one JSON object, nothing after it
	if _, err := dec.Token(); err != io.EOF {
		return Cursor{}, invalid("cursor", "not a valid token")
	}
	// null unmarshals into a zero value without error
	if len(w.Value) == 0 || bytes.Equal(bytes.TrimSpace(w.Value), []byte("null")) {
		return Cursor{}, invalid("cursor", "missing value")
	}

	key, ok := sortKeys[w.Key]
	if !ok {
		return Cursor{}, invalid("cursor", "unknown sort key %q", w.Key)
	}
	c := Cursor{Key: key}

	switch key.kind {
	case kindString:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return Cursor{}, invalid("cursor", "value for %s must be a string", key.name)
		}
		c.Value = s
	case kindInt:
		var n int64
		if err := json.Unmarshal(w.Value, &n); err != nil {
			return Cursor{}, invalid("cursor", "value for %s must be an integer", key.name)
		}
		c.Value = n
	case kindTime:
		var n int64
		if err := json.Unmarshal(w.Value, &n); err != nil {
			return Cursor{}, invalid("cursor", "value for %s must be a timestamp", key.name)
		}
		c.Value = time.Unix(0, n).UTC()
	}

	if key.unique {
		if w.ID != "" {
			return Cursor{}, invalid("cursor", "unexpected id for unique key %s", key.name)
		}
		return c, nil
	}

	if w.ID == "" {
		return Cursor{}, invalid("cursor", "missing id for key %s", key.name)
	}
	id, err := strconv.ParseInt(w.ID, 10, 64)
	if err != nil || id <= 0 {
		return Cursor{}, invalid("cursor", "malformed id %q", w.ID)
	}
	c.ID = id
	return c, nil
}
