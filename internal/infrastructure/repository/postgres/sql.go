package postgres

import (
	"database/sql"
	"errors"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func nullableScore(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}
