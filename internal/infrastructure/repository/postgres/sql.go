package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sonic "github.com/bytedance/sonic"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// encodeJSON renders value for a jsonb column. Nil values become SQL NULL.
func encodeJSON(value any) (sql.NullString, error) {
	if value == nil {
		return sql.NullString{}, nil
	}
	encoded, err := sonic.Marshal(value)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode jsonb: %w", err)
	}
	if string(encoded) == "null" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: string(encoded), Valid: true}, nil
}

// decodeJSON fills out from a jsonb column. NULL and empty leave out untouched.
func decodeJSON(raw sql.NullString, out any) error {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return nil
	}
	if err := sonic.Unmarshal([]byte(raw.String), out); err != nil {
		return fmt.Errorf("decode jsonb: %w", err)
	}
	return nil
}

func nullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	return sql.NullString{String: value, Valid: value != ""}
}
