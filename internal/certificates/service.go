package certificates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"event-portal/certificate-service/internal/events"
	"event-portal/certificate-service/internal/render"
	"event-portal/certificate-service/internal/storage"
)

// Renderer produces the two certificate formats from one layout and
// data record.
type Renderer interface {
	Render(ctx context.Context, cfg *render.LayoutConfig, data render.DataRecord) (*render.Output, error)
}

// IssueResult carries the certificate record together with the
// rendered files; both formats are always present.
type IssueResult struct {
	Record  *CertificateRecord
	Created bool
	PDF     []byte
	PNG     []byte
}

type Service struct {
	repo     Repository
	events   events.Repository
	renderer Renderer
	store    storage.ArtifactStore
	logger   *zap.Logger
}

func NewService(repo Repository, eventsRepo events.Repository, renderer Renderer, store storage.ArtifactStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		events:   eventsRepo,
		renderer: renderer,
		store:    store,
		logger:   logger,
	}
}

// NormalizeName canonicalizes a participant name for the uniqueness
// check: surrounding whitespace is trimmed and internal runs collapse
// to single spaces. "Ada  Lovelace " and "Ada Lovelace" are the same
// participant.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Issue returns the certificate for (event, participant), creating it
// if none exists. Issuing is idempotent: a repeat call returns the
// original record with its original number. Under concurrent first
// calls the records table's uniqueness constraint arbitrates; the
// loser discards its counter value and adopts the winner's record,
// which is why issued numbers can have gaps.
func (s *Service) Issue(ctx context.Context, eventID, userID uuid.UUID, participantName string) (*CertificateRecord, bool, error) {
	name := NormalizeName(participantName)
	if name == "" {
		return nil, false, fmt.Errorf("participant name is required")
	}

	if record, err := s.repo.GetByEventAndParticipant(ctx, eventID, name); err == nil {
		return record, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, false, err
	}

	value, err := s.repo.NextCounterValue(ctx, eventID)
	if err != nil {
		return nil, false, err
	}

	record := &CertificateRecord{
		ID:                uuid.New(),
		CertificateNumber: FormatNumber(event.CertificatePrefix, value),
		EventID:           eventID,
		UserID:            userID,
		ParticipantName:   name,
		CompletionDate:    event.CompletionDate(),
	}
	err = s.repo.CreateRecord(ctx, record)
	if errors.Is(err, ErrDuplicate) {
		// Lost the race: another request issued for this participant
		// between our lookup and insert. The counter value we drew is
		// gone for good; return the winner's record.
		s.logger.Info("lost issuance race, reusing existing certificate",
			zap.String("event_id", eventID.String()),
			zap.String("participant_name", name),
			zap.Int("discarded_counter_value", value))
		existing, getErr := s.repo.GetByEventAndParticipant(ctx, eventID, name)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	s.logger.Info("certificate issued",
		zap.String("certificate_number", record.CertificateNumber),
		zap.String("event_id", eventID.String()),
		zap.String("participant_name", name))
	return record, true, nil
}

// IssueAndRender issues (or re-reads) the certificate and renders both
// formats. Files are uploaded only the first time; a record that
// already has artifact URLs is re-rendered for the response but not
// re-uploaded.
func (s *Service) IssueAndRender(ctx context.Context, eventID, userID uuid.UUID, participantName string) (*IssueResult, error) {
	record, created, err := s.Issue(ctx, eventID, userID, participantName)
	if err != nil {
		return nil, err
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	cfg, err := event.LayoutConfig()
	if err != nil {
		return nil, err
	}

	out, err := s.renderer.Render(ctx, cfg, render.DataRecord{
		ParticipantName:   record.ParticipantName,
		EventTitle:        event.Title,
		Venue:             event.Venue,
		CompletionDate:    record.CompletionDate,
		CertificateNumber: record.CertificateNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}

	if !record.HasArtifacts() {
		if err := s.storeArtifacts(ctx, record, out); err != nil {
			return nil, err
		}
	}

	return &IssueResult{
		Record:  record,
		Created: created,
		PDF:     out.PDF,
		PNG:     out.PNG,
	}, nil
}

func (s *Service) storeArtifacts(ctx context.Context, record *CertificateRecord, out *render.Output) error {
	base := fmt.Sprintf("certificates/%s/%s/%s",
		record.EventID, record.UserID, record.CertificateNumber)

	pdfURL, err := s.store.Upload(ctx, base+".pdf", "application/pdf", out.PDF)
	if err != nil {
		return fmt.Errorf("failed to store pdf: %w", err)
	}
	pngURL, err := s.store.Upload(ctx, base+".png", "image/png", out.PNG)
	if err != nil {
		return fmt.Errorf("failed to store png: %w", err)
	}

	if err := s.repo.UpdateArtifacts(ctx, record.ID, pdfURL, pngURL); err != nil {
		return err
	}
	record.PDFURL = pdfURL
	record.PNGURL = pngURL
	return nil
}

// Verify resolves a certificate number to its public details. An
// unknown number yields Valid: false rather than an error.
func (s *Service) Verify(ctx context.Context, certificateNumber string) (*VerificationResult, error) {
	record, err := s.repo.GetByNumber(ctx, certificateNumber)
	if errors.Is(err, ErrNotFound) {
		return &VerificationResult{Valid: false}, nil
	}
	if err != nil {
		return nil, err
	}

	result := &VerificationResult{
		Valid:             true,
		CertificateNumber: record.CertificateNumber,
		ParticipantName:   record.ParticipantName,
		CompletionDate:    record.CompletionDate,
	}
	if event, err := s.events.GetByID(ctx, record.EventID); err == nil {
		result.EventTitle = event.Title
	}
	return result, nil
}

func (s *Service) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*CertificateRecord, error) {
	return s.repo.ListByEvent(ctx, eventID)
}

// FormatNumber renders a counter value as a certificate number:
// the event prefix, a dash, and the value zero-padded to three digits.
// Values past 999 simply widen.
func FormatNumber(prefix string, value int) string {
	return fmt.Sprintf("%s-%03d", prefix, value)
}
