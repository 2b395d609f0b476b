package docstore

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

type cursor struct {
	Value string `json:"v"`
	ID    string `json:"id"`
}

func encodeCursor(value, id string) string {
	raw, _ := json.Marshal(cursor{Value: value, ID: id})
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(token string) (cursor, error) {
	var c cursor
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return c, errInvalidCursor
	}
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == "" {
		return c, errInvalidCursor
	}
	return c, nil
}

// orderValue is the string form used for ordering and cursors.
func orderValue(doc Document, field string) string {
	if field == FieldID {
		return doc.ID
	}
	switch v := doc.Data[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// afterCursor reports whether (value, id) comes strictly after the cursor in
// the requested direction.
func afterCursor(value, id string, c cursor, desc bool) bool {
	if desc {
		return value < c.Value || (value == c.Value && id < c.ID)
	}
	return value > c.Value || (value == c.Value && id > c.ID)
}
