package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	if !isNotFound(sql.ErrNoRows) {
		t.Fatalf("sql.ErrNoRows must be not-found")
	}
	if !isNotFound(fmt.Errorf("wrapped: %w", sql.ErrNoRows)) {
		t.Fatalf("wrapped sql.ErrNoRows must be not-found")
	}
	if isNotFound(errors.New("connection refused")) {
		t.Fatalf("arbitrary error must not be not-found")
	}
}

func TestNullableScore(t *testing.T) {
	t.Parallel()

	if got := nullableScore(nil); got != nil {
		t.Fatalf("nil score must map to nil, got=%v", got)
	}
	v := 2
	if got := nullableScore(&v); got != 2 {
		t.Fatalf("set score must map to value, got=%v", got)
	}
}
