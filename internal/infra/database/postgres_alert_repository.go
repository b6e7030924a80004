package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eglogicsabhishek1/jbe-management/internal/domain/alerts"
	"github.com/lib/pq"
)

// PostgresAlertRepository implements alerts.Repository against a live
// Postgres alerts table.
type PostgresAlertRepository struct {
	db    *sql.DB
	table string
}

func NewPostgresAlertRepository(db *sql.DB, table string) (*PostgresAlertRepository, error) {
	if err := validateTableName(table); err != nil {
		return nil, err
	}
	return &PostgresAlertRepository{db: db, table: table}, nil
}

// ListActive returns every active user ordered by user_id ascending. The
// ordering is the stable key that makes repeated distribution runs reproduce
// identical partition assignments.
func (r *PostgresAlertRepository) ListActive(ctx context.Context) ([]*alerts.User, error) {
	query := fmt.Sprintf(`SELECT user_id, is_active, frequency, next_email_date, "partition"
		FROM %s
		WHERE is_active = TRUE
		ORDER BY user_id ASC`, pq.QuoteIdentifier(r.table))

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying active users: %w", err)
	}
	defer rows.Close()

	users := make([]*alerts.User, 0)
	for rows.Next() {
		u := alerts.User{}
		if err := rows.Scan(&u.ID, &u.IsActive, &u.Frequency, &u.NextEmailDate, &u.Partition); err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// CountActiveByFrequencyAndDate groups active users by (frequency, next_email_date).
func (r *PostgresAlertRepository) CountActiveByFrequencyAndDate(ctx context.Context) ([]alerts.FrequencyDateCount, error) {
	query := fmt.Sprintf(`SELECT frequency, next_email_date, COUNT(*)
		FROM %s
		WHERE is_active = TRUE
		GROUP BY frequency, next_email_date
		ORDER BY frequency, next_email_date`, pq.QuoteIdentifier(r.table))

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying user counts: %w", err)
	}
	defer rows.Close()

	counts := make([]alerts.FrequencyDateCount, 0)
	for rows.Next() {
		c := alerts.FrequencyDateCount{}
		if err := rows.Scan(&c.Frequency, &c.NextEmailDate, &c.Count); err != nil {
			return nil, fmt.Errorf("error scanning count row: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating count rows: %w", err)
	}
	return counts, nil
}

// ApplyAssignments writes partition and next_email_date for every assignment
// in one statement inside one transaction. The assignment arrays are unnested
// server-side so the update stays a single round trip regardless of size.
func (r *PostgresAlertRepository) ApplyAssignments(ctx context.Context, assignments []alerts.Assignment) (int64, error) {
	if len(assignments) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(assignments))
	partitions := make([]int64, len(assignments))
	dates := make([]string, len(assignments))
	for i, a := range assignments {
		ids[i] = a.UserID
		partitions[i] = int64(a.Partition)
		dates[i] = a.NextEmailDate.Format("2006-01-02")
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction for bulk update: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	query := fmt.Sprintf(`UPDATE %s AS a
		SET "partition" = u.part, next_email_date = u.next_date
		FROM (SELECT unnest($1::bigint[]) AS id,
		             unnest($2::int[]) AS part,
		             unnest($3::date[]) AS next_date) AS u
		WHERE a.user_id = u.id`, pq.QuoteIdentifier(r.table))

	res, err := txn.ExecContext(ctx, query, pq.Array(ids), pq.Array(partitions), pq.Array(dates))
	if err != nil {
		return 0, fmt.Errorf("error executing bulk partition update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading rows affected: %w", err)
	}

	if err := txn.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit bulk partition update: %w", err)
	}
	return affected, nil
}

// TableName returns the live table this repository operates on.
func (r *PostgresAlertRepository) TableName() string {
	return r.table
}

var _ alerts.Repository = (*PostgresAlertRepository)(nil)
