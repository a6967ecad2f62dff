package db

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestHasTable(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer conn.Close()

	mock.ExpectQuery("information_schema\\.tables").WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("users"))
	mock.ExpectQuery("information_schema\\.tables").WithArgs("payments").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}))

	if !HasTable(context.Background(), conn, "users") {
		t.Fatalf("expected users table to exist")
	}
	if HasTable(context.Background(), conn, "payments") {
		t.Fatalf("expected payments table to be missing")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHasColumn(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer conn.Close()

	mock.ExpectQuery("information_schema\\.columns").WithArgs("payments", "email").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("email"))
	mock.ExpectQuery("information_schema\\.columns").WithArgs("payments", "owner").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}))

	if !HasColumn(context.Background(), conn, "payments", "email") {
		t.Fatalf("expected payments.email to exist")
	}
	if HasColumn(context.Background(), conn, "payments", "owner") {
		t.Fatalf("expected payments.owner to be missing")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestJSONHelpers(t *testing.T) {
	s, err := EncodeJSON(nil)
	if err != nil || s != "{}" {
		t.Fatalf("EncodeJSON(nil) = %q, %v", s, err)
	}
	m, err := DecodeJSONMap(`{"last_destination":"Paris"}`)
	if err != nil || m["last_destination"] != "Paris" {
		t.Fatalf("DecodeJSONMap = %v, %v", m, err)
	}
	m, err = DecodeJSONMap("  ")
	if err != nil || len(m) != 0 {
		t.Fatalf("DecodeJSONMap blank = %v, %v", m, err)
	}
	if _, err := DecodeJSONMap("{broken"); err == nil {
		t.Fatalf("expected error for broken json")
	}
}
