package s3archive

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lib/pq"
)

// Options configures the S3 client for the snapshot archive.
type Options struct {
	Region      string
	EndpointURL string // empty in prod, set for LocalStack/MinIO
	AccessKeyID string
	SecretKey   string
	Bucket      string
}

// NewClient creates an S3 client. When opts.EndpointURL is set, it overrides
// the endpoint and enables path-style addressing.
func NewClient(ctx context.Context, opts Options) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	clientOpts := []func(*s3.Options){}
	if opts.EndpointURL != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

// backupTableResolver maps a (table, versionTag) pair to the physical backup
// table holding the snapshot rows.
type backupTableResolver interface {
	LookupBackupTable(ctx context.Context, tableName, versionTag string) (string, error)
}

// Archiver uploads a newline-delimited JSON dump of a snapshot's rows to S3
// for offsite retention. The live table and the snapshot tables stay the
// source of truth; the archive is a recovery artifact of last resort.
type Archiver struct {
	db       *sql.DB
	resolver backupTableResolver
	client   *s3.Client
	bucket   string
}

func NewArchiver(db *sql.DB, resolver backupTableResolver, client *s3.Client, bucket string) *Archiver {
	return &Archiver{db: db, resolver: resolver, client: client, bucket: bucket}
}

// Archive dumps the snapshot identified by (tableName, versionTag) and
// uploads it under <tableName>/<versionTag>.ndjson.
func (a *Archiver) Archive(ctx context.Context, tableName, versionTag string) error {
	backupTable, err := a.resolver.LookupBackupTable(ctx, tableName, versionTag)
	if err != nil {
		return err
	}

	// row_to_json keeps the dump schema-agnostic: one JSON object per row,
	// column names included.
	query := fmt.Sprintf(`SELECT row_to_json(t) FROM %s AS t`, pq.QuoteIdentifier(backupTable))
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("error dumping snapshot %s: %w", versionTag, err)
	}
	defer rows.Close()

	var buf bytes.Buffer
	for rows.Next() {
		var line []byte
		if err := rows.Scan(&line); err != nil {
			return fmt.Errorf("error scanning snapshot row: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating snapshot rows: %w", err)
	}

	key := fmt.Sprintf("%s/%s.ndjson", tableName, versionTag)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("s3 put object %s: %w", key, err)
	}
	return nil
}
