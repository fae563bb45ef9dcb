package certificates

import (
	"time"

	"github.com/google/uuid"
)

// CertificateRecord is the issued certificate: the durable claim that
// one participant completed one event. The (event_id, participant_name)
// pair is unique, as is the certificate number itself.
type CertificateRecord struct {
	ID                uuid.UUID `db:"id" json:"id"`
	CertificateNumber string    `db:"certificate_number" json:"certificate_number"`
	EventID           uuid.UUID `db:"event_id" json:"event_id"`
	UserID            uuid.UUID `db:"user_id" json:"user_id"`
	ParticipantName   string    `db:"participant_name" json:"participant_name"`
	CompletionDate    time.Time `db:"completion_date" json:"completion_date"`
	PDFURL            string    `db:"pdf_url" json:"pdf_url,omitempty"`
	PNGURL            string    `db:"png_url" json:"png_url,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// HasArtifacts reports whether both rendered files have been stored.
func (r *CertificateRecord) HasArtifacts() bool {
	return r.PDFURL != "" && r.PNGURL != ""
}

// IssueRequest is the payload for issuing a certificate.
type IssueRequest struct {
	UserID          uuid.UUID `json:"user_id" binding:"required"`
	ParticipantName string    `json:"participant_name" binding:"required"`
}

// VerificationResult is the public view returned by the verification
// endpoint; it carries no internal identifiers.
type VerificationResult struct {
	Valid             bool      `json:"valid"`
	CertificateNumber string    `json:"certificate_number,omitempty"`
	ParticipantName   string    `json:"participant_name,omitempty"`
	EventTitle        string    `json:"event_title,omitempty"`
	CompletionDate    time.Time `json:"completion_date,omitempty"`
}
