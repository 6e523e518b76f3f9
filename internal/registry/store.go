package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var ErrProcessNotFound = errors.New("process does not exist")

const (
	processesTable = "processes"
	metadataTable  = "process_metadata"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Store persists process and metadata records in Postgres. It satisfies both
// the process registry and the metadata registry used by ingestion; the two
// record kinds live in separate tables keyed independently.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// CreateProcess writes the initial PROCESSING record for processID.
func (s *Store) CreateProcess(ctx context.Context, processID string, createdAt time.Time) error {
	query, args, err := insertProcessQuery(NewProcessRecord(processID, createdAt))
	if err != nil {
		return fmt.Errorf("failed to construct insert process query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert process %s: %w", processID, err)
	}
	return nil
}

// CreateMetadata writes the metadata record for an already registered process.
func (s *Store) CreateMetadata(ctx context.Context, rec MetadataRecord) error {
	query, args, err := insertMetadataQuery(rec)
	if err != nil {
		return fmt.Errorf("failed to construct insert metadata query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert metadata for process %s: %w", rec.ProcessID, err)
	}
	return nil
}

// GetProcess loads a single process record.
func (s *Store) GetProcess(ctx context.Context, processID string) (*ProcessRecord, error) {
	query, args, err := selectProcessQuery(processID)
	if err != nil {
		return nil, fmt.Errorf("failed to construct select process query: %w", err)
	}

	var rec ProcessRecord
	if err := s.db.GetContext(ctx, &rec, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProcessNotFound
		}
		return nil, fmt.Errorf("failed to find process %s: %w", processID, err)
	}
	return &rec, nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func insertProcessQuery(rec ProcessRecord) (string, []any, error) {
	return psql.Insert(processesTable).
		Columns("process_id", "status", "created_at", "updated_at", "finished_at").
		Values(rec.ProcessID, string(rec.Status), rec.CreatedAt, rec.UpdatedAt, rec.FinishedAt).
		ToSql()
}

func insertMetadataQuery(rec MetadataRecord) (string, []any, error) {
	return psql.Insert(metadataTable).
		Columns("metadata_id", "process_id", "owner_email", "owner_name", "storage_key", "frame_rate", "created_at").
		Values(rec.MetadataID, rec.ProcessID, rec.OwnerEmail, rec.OwnerName, rec.StorageKey, rec.FrameRate, rec.CreatedAt).
		ToSql()
}

func selectProcessQuery(processID string) (string, []any, error) {
	return psql.Select("process_id", "status", "created_at", "updated_at", "finished_at").
		From(processesTable).
		Where(squirrel.Eq{"process_id": processID}).
		ToSql()
}
