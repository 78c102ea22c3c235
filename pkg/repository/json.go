package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

type jsonScanner struct {
	dst any
}

// JSON returns a sql.Scanner that decodes a JSON column (for example
// to_json(text[])) into dst. NULL leaves dst unchanged.
func JSON(dst any) sql.Scanner {
	return jsonScanner{dst: dst}
}

func (s jsonScanner) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, s.dst)
	case string:
		return json.Unmarshal([]byte(v), s.dst)
	default:
		return fmt.Errorf("scan json: unsupported source type %T", src)
	}
}
