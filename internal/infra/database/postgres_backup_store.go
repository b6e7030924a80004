package database

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/eglogicsabhishek1/jbe-management/internal/domain/backup"
	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"
)

// PostgresBackupStore implements backup.Store. Each snapshot is a physical
// copy of the live table (<table>_snap_<tag>) plus a row in the append-only
// alert_snapshots registry. The copy and the registry row are written in one
// transaction, so a snapshot is either fully recorded or absent.
type PostgresBackupStore struct {
	db *sql.DB

	// Monotonic ULID source: tags created within the same millisecond still
	// sort in creation order.
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewPostgresBackupStore(db *sql.DB) *PostgresBackupStore {
	return &PostgresBackupStore{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (s *PostgresBackupStore) newVersionTag() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), s.entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate version tag: %w", err)
	}
	return id.String(), nil
}

// backupTableName derives the physical copy's name from the live table and
// the version tag. ULIDs are upper-case base32; Postgres folds unquoted
// identifiers to lower case, so the tag is lowered up front.
func backupTableName(table, versionTag string) string {
	return fmt.Sprintf("%s_snap_%s", table, strings.ToLower(versionTag))
}

// Snapshot captures every row of the named table and returns the new version
// tag. The row copy happens server-side (CREATE TABLE ... AS TABLE), so the
// capture is atomic with respect to concurrent writers.
func (s *PostgresBackupStore) Snapshot(ctx context.Context, tableName string) (string, error) {
	if err := validateTableName(tableName); err != nil {
		return "", err
	}

	tag, err := s.newVersionTag()
	if err != nil {
		return "", err
	}
	backupTable := backupTableName(tableName, tag)

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction for snapshot: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	copyDDL := fmt.Sprintf(`CREATE TABLE %s AS TABLE %s`,
		pq.QuoteIdentifier(backupTable), pq.QuoteIdentifier(tableName))
	if _, err := txn.ExecContext(ctx, copyDDL); err != nil {
		return "", fmt.Errorf("error copying %s to %s: %w", tableName, backupTable, err)
	}

	registerQuery := fmt.Sprintf(`INSERT INTO %s (table_name, version_tag, backup_table)
		VALUES ($1, $2, $3)`, pq.QuoteIdentifier(snapshotRegistryTable))
	if _, err := txn.ExecContext(ctx, registerQuery, tableName, tag, backupTable); err != nil {
		return "", fmt.Errorf("error registering snapshot %s: %w", tag, err)
	}

	if err := txn.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit snapshot %s: %w", tag, err)
	}
	return tag, nil
}

// Restore replaces the live table's contents with the rows captured at
// versionTag. The snapshot itself is never touched.
func (s *PostgresBackupStore) Restore(ctx context.Context, tableName, versionTag string) error {
	if err := validateTableName(tableName); err != nil {
		return err
	}

	backupTable, err := s.lookupBackupTable(ctx, tableName, versionTag)
	if err != nil {
		return err
	}

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for restore: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	clearQuery := fmt.Sprintf(`DELETE FROM %s`, pq.QuoteIdentifier(tableName))
	if _, err := txn.ExecContext(ctx, clearQuery); err != nil {
		return fmt.Errorf("error clearing %s for restore: %w", tableName, err)
	}

	copyQuery := fmt.Sprintf(`INSERT INTO %s SELECT * FROM %s`,
		pq.QuoteIdentifier(tableName), pq.QuoteIdentifier(backupTable))
	if _, err := txn.ExecContext(ctx, copyQuery); err != nil {
		return fmt.Errorf("error restoring %s from %s: %w", tableName, backupTable, err)
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore of %s: %w", tableName, err)
	}
	return nil
}

// List returns the known snapshots for the table, newest first. Registry rows
// carry ULID tags, so the tag ordering agrees with created_at.
func (s *PostgresBackupStore) List(ctx context.Context, tableName string) ([]backup.Snapshot, error) {
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT table_name, version_tag, created_at
		FROM %s
		WHERE table_name = $1
		ORDER BY version_tag DESC`, pq.QuoteIdentifier(snapshotRegistryTable))

	rows, err := s.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, fmt.Errorf("error querying snapshots for %s: %w", tableName, err)
	}
	defer rows.Close()

	snapshots := make([]backup.Snapshot, 0)
	for rows.Next() {
		snap := backup.Snapshot{}
		if err := rows.Scan(&snap.TableName, &snap.VersionTag, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning snapshot row: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}
	return snapshots, nil
}

// LookupBackupTable resolves a version tag to the physical backup table name.
// Used by the offsite archiver; returns backup.ErrSnapshotNotFound for
// unknown tags.
func (s *PostgresBackupStore) LookupBackupTable(ctx context.Context, tableName, versionTag string) (string, error) {
	return s.lookupBackupTable(ctx, tableName, versionTag)
}

func (s *PostgresBackupStore) lookupBackupTable(ctx context.Context, tableName, versionTag string) (string, error) {
	query := fmt.Sprintf(`SELECT backup_table FROM %s
		WHERE table_name = $1 AND version_tag = $2`, pq.QuoteIdentifier(snapshotRegistryTable))

	var backupTable string
	err := s.db.QueryRowContext(ctx, query, tableName, versionTag).Scan(&backupTable)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("%w: %s@%s", backup.ErrSnapshotNotFound, tableName, versionTag)
		}
		return "", fmt.Errorf("error looking up snapshot %s: %w", versionTag, err)
	}
	return backupTable, nil
}

var _ backup.Store = (*PostgresBackupStore)(nil)
