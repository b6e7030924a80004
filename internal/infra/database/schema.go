package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/lib/pq"
)

// snapshotRegistryTable is the append-only registry of table snapshots,
// keyed by (table_name, version_tag).
const snapshotRegistryTable = "alert_snapshots"

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName rejects anything that is not a plain SQL identifier.
// Table names reach this package from configuration and query parameters, so
// they are validated before being interpolated into DDL.
func validateTableName(name string) error {
	if len(name) == 0 || len(name) > 63 || !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid table name: %q", name)
	}
	return nil
}

// EnsureSchema creates the alerts table and the snapshot registry if they do
// not exist. Called once at application startup.
func EnsureSchema(ctx context.Context, db *sql.DB, alertsTable string) error {
	if err := validateTableName(alertsTable); err != nil {
		return err
	}

	alertsDDL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		user_id BIGSERIAL PRIMARY KEY,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		frequency VARCHAR(16) NOT NULL,
		next_email_date DATE NOT NULL,
		"partition" INT
	)`, pq.QuoteIdentifier(alertsTable))
	if _, err := db.ExecContext(ctx, alertsDDL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", alertsTable, err)
	}

	registryDDL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		table_name VARCHAR(63) NOT NULL,
		version_tag VARCHAR(26) NOT NULL,
		backup_table VARCHAR(128) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (table_name, version_tag)
	)`, pq.QuoteIdentifier(snapshotRegistryTable))
	if _, err := db.ExecContext(ctx, registryDDL); err != nil {
		return fmt.Errorf("failed to create snapshot registry: %w", err)
	}

	return nil
}
