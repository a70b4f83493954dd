package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolationPostgres(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_orders_order_number"}
	wrapped := fmt.Errorf("creating order: %w", pgErr)

	if !IsUniqueViolation(wrapped, "") {
		t.Fatal("expected 23505 to match without a constraint name")
	}
	if !IsUniqueViolation(wrapped, "idx_orders_order_number") {
		t.Fatal("expected 23505 to match its own constraint")
	}
	if IsUniqueViolation(wrapped, "idx_products_name") {
		t.Fatal("expected a different constraint not to match")
	}

	notUnique := &pgconn.PgError{Code: "23503", ConstraintName: "fk_order_items_product"}
	if IsUniqueViolation(notUnique, "") {
		t.Fatal("foreign key violations must not match")
	}
}

func TestIsUniqueViolationSqliteMessage(t *testing.T) {
	err := errors.New("UNIQUE constraint failed: orders.order_number")

	// Sqlite never names the index, so the generic text must still match
	// even when the caller asks about a specific constraint.
	if !IsUniqueViolation(err, "idx_orders_order_number") {
		t.Fatal("expected sqlite unique violation to match with a constraint name")
	}
	if !IsUniqueViolation(err, "") {
		t.Fatal("expected sqlite unique violation to match without a constraint name")
	}
}

func TestIsUniqueViolationOtherErrors(t *testing.T) {
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil must not match")
	}
	if IsUniqueViolation(errors.New("connection refused"), "idx_orders_order_number") {
		t.Fatal("unrelated errors must not match")
	}
}
