package certificates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when no certificate matches the lookup.
	ErrNotFound = errors.New("certificate not found")
	// ErrDuplicate is returned when an insert collides with an existing
	// certificate for the same event and participant. The caller treats
	// it as losing the issuance race, not as a failure.
	ErrDuplicate = errors.New("certificate already exists")
)

type Repository interface {
	GetByEventAndParticipant(ctx context.Context, eventID uuid.UUID, participantName string) (*CertificateRecord, error)
	GetByNumber(ctx context.Context, certificateNumber string) (*CertificateRecord, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*CertificateRecord, error)
	NextCounterValue(ctx context.Context, eventID uuid.UUID) (int, error)
	CreateRecord(ctx context.Context, record *CertificateRecord) error
	UpdateArtifacts(ctx context.Context, id uuid.UUID, pdfURL, pngURL string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const recordColumns = `
	id, certificate_number, event_id, user_id, participant_name,
	completion_date, pdf_url, png_url, created_at, updated_at
`

func (r *PostgresRepository) GetByEventAndParticipant(ctx context.Context, eventID uuid.UUID, participantName string) (*CertificateRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM certificate_records
		WHERE event_id = $1 AND participant_name = $2
	`
	var record CertificateRecord
	err := r.db.GetContext(ctx, &record, query, eventID, participantName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	return &record, nil
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, certificateNumber string) (*CertificateRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM certificate_records
		WHERE certificate_number = $1
	`
	var record CertificateRecord
	err := r.db.GetContext(ctx, &record, query, certificateNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	return &record, nil
}

func (r *PostgresRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*CertificateRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM certificate_records
		WHERE event_id = $1
		ORDER BY certificate_number
	`
	records := []*CertificateRecord{}
	if err := r.db.SelectContext(ctx, &records, query, eventID); err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	return records, nil
}

// NextCounterValue atomically increments and returns the per-event
// issuance counter. The upsert makes first use and every later use the
// same single statement, so concurrent callers can never observe the
// same value. Values handed out here are permanently consumed even if
// the caller then loses the insert race.
func (r *PostgresRepository) NextCounterValue(ctx context.Context, eventID uuid.UUID) (int, error) {
	query := `
		INSERT INTO event_counters (event_id, value)
		VALUES ($1, 1)
		ON CONFLICT (event_id)
		DO UPDATE SET value = event_counters.value + 1
		RETURNING value
	`
	var value int
	if err := r.db.GetContext(ctx, &value, query, eventID); err != nil {
		return 0, fmt.Errorf("failed to advance certificate counter: %w", err)
	}
	return value, nil
}

func (r *PostgresRepository) CreateRecord(ctx context.Context, record *CertificateRecord) error {
	query := `
		INSERT INTO certificate_records (
			id, certificate_number, event_id, user_id, participant_name,
			completion_date, pdf_url, png_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		record.ID, record.CertificateNumber, record.EventID, record.UserID,
		record.ParticipantName, record.CompletionDate, record.PDFURL, record.PNGURL,
	).Scan(&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create certificate: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateArtifacts(ctx context.Context, id uuid.UUID, pdfURL, pngURL string) error {
	query := `
		UPDATE certificate_records
		SET pdf_url = $2, png_url = $3, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, pdfURL, pngURL)
	if err != nil {
		return fmt.Errorf("failed to update artifacts: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
