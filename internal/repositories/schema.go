package repositories

import (
	"context"
	"database/sql"
	"fmt"

	intdb "travelplanner/internal/db"
	"travelplanner/internal/utils"
)

const (
	tableUsers        = "users"
	tableBookings     = "bookings"
	tableUserBookings = "user_bookings"
	tablePayments     = "payments"
)

// schema lists CREATE statements in dependency order.
var schema = []struct {
	table string
	ddl   string
}{
	{tableUsers, `CREATE TABLE IF NOT EXISTS users (
		email         VARCHAR(255) NOT NULL PRIMARY KEY,
		password_hash VARCHAR(255) NOT NULL,
		name          VARCHAR(255) NOT NULL,
		preferences   TEXT NULL,
		created_at    DATETIME NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{tableBookings, `CREATE TABLE IF NOT EXISTS bookings (
		booking_id   VARCHAR(32) NOT NULL PRIMARY KEY,
		booking_type VARCHAR(32) NOT NULL,
		provider     VARCHAR(64) NOT NULL,
		itinerary_id VARCHAR(64) NOT NULL,
		email        VARCHAR(255) NOT NULL DEFAULT '',
		booking_data TEXT NOT NULL,
		price        DECIMAL(12,2) NOT NULL DEFAULT 0,
		status       VARCHAR(32) NOT NULL,
		created_at   DATETIME NOT NULL,
		KEY idx_bookings_itinerary (itinerary_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{tableUserBookings, `CREATE TABLE IF NOT EXISTS user_bookings (
		id           BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email        VARCHAR(255) NOT NULL,
		booking_id   VARCHAR(64) NOT NULL,
		booking_type VARCHAR(64) NOT NULL,
		booking_data TEXT NOT NULL,
		created_at   DATETIME(6) NOT NULL,
		KEY idx_user_bookings_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{tablePayments, `CREATE TABLE IF NOT EXISTS payments (
		transaction_id VARCHAR(32) NOT NULL PRIMARY KEY,
		email          VARCHAR(255) NOT NULL DEFAULT '',
		amount         DECIMAL(12,2) NOT NULL,
		currency       VARCHAR(8) NOT NULL,
		description    VARCHAR(512) NOT NULL,
		provider       VARCHAR(64) NOT NULL,
		status         VARCHAR(32) NOT NULL,
		created_at     DATETIME NOT NULL,
		KEY idx_payments_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
}

// addedColumns are applied to tables that predate them.
var addedColumns = []struct {
	table  string
	column string
	ddl    string
}{
	{tablePayments, "email", `ALTER TABLE payments ADD COLUMN email VARCHAR(255) NOT NULL DEFAULT '' AFTER transaction_id`},
}

// EnsureSchema creates any missing table and adds columns missing from
// tables created by older versions.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	existing := map[string]bool{}
	for _, t := range schema {
		if intdb.HasTable(ctx, db, t.table) {
			existing[t.table] = true
			continue
		}
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("create table %s: %w", t.table, err)
		}
		utils.LogEvent("", "schema", "create_table", "created table "+t.table)
	}
	for _, col := range addedColumns {
		if !existing[col.table] || intdb.HasColumn(ctx, db, col.table, col.column) {
			continue
		}
		if _, err := db.ExecContext(ctx, col.ddl); err != nil {
			return fmt.Errorf("add column %s.%s: %w", col.table, col.column, err)
		}
		utils.LogEvent("", "schema", "add_column", "added column "+col.table+"."+col.column)
	}
	return nil
}
