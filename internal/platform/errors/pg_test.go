package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func pgErr(code string) *pgconn.PgError { return &pgconn.PgError{Code: code} }

func TestDBErrorCode(t *testing.T) {
	cases := []struct {
		code string
		want ErrorCode
	}{
		{"23505", ErrorCodeDuplicateKey},
		{"23502", ErrorCodeValidation},
		{"23514", ErrorCodeValidation},
		{"25006", ErrorCodeUnavailable},
		{"57P03", ErrorCodeUnavailable},
		{"40001", ErrorCodeDB},
		{"XXXXX", ErrorCodeDB},
	}
	for _, c := range cases {
		got, ok := DBErrorCode(pgErr(c.code))
		if !ok || got != c.want {
			t.Fatalf("DBErrorCode(%s) = %v,%v want %v,true", c.code, got, ok, c.want)
		}
	}
	if _, ok := DBErrorCode(stderrs.New("plain")); ok {
		t.Fatalf("DBErrorCode(plain) should not be ok")
	}
}

func TestFromDB(t *testing.T) {
	if FromDB(nil, "x") != nil {
		t.Fatalf("FromDB(nil) should be nil")
	}
	err := FromDB(fmt.Errorf("exec: %w", pgErr("23505")), "upsert goal %s", "sleep")
	if !IsCode(err, ErrorCodeDuplicateKey) {
		t.Fatalf("FromDB(pg unique) = %v, want duplicate key", CodeOf(err))
	}
	err = FromDB(stderrs.New("constraint failed: UNIQUE constraint failed: goals.slug"), "insert")
	if !IsCode(err, ErrorCodeDuplicateKey) {
		t.Fatalf("FromDB(sqlite unique) = %v, want duplicate key", CodeOf(err))
	}
	err = FromDB(stderrs.New("disk I/O error"), "insert")
	if !IsCode(err, ErrorCodeDB) {
		t.Fatalf("FromDB(other) = %v, want db", CodeOf(err))
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("q: %w", context.DeadlineExceeded), false},
		{"serialization", pgErr("40001"), true},
		{"deadlock", pgErr("40P01"), true},
		{"unique", pgErr("23505"), false},
		{"sqlite busy", stderrs.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"commit text", stderrs.New("commit unexpectedly resulted in rollback"), true},
		{"other", stderrs.New("boom"), false},
	}
	for _, c := range cases {
		if got := IsRetryable(c.err); got != c.want {
			t.Fatalf("%s: IsRetryable = %v, want %v", c.name, got, c.want)
		}
	}
}
