package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"event-portal/certificate-service/internal/render"
)

// Event is an event that can issue participation certificates. The
// certificate template lives alongside the event as a JSON document so
// organizers can restyle certificates without a schema change.
type Event struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title             string         `gorm:"not null" json:"title"`
	Venue             string         `json:"venue"`
	StartsAt          time.Time      `json:"starts_at"`
	EndsAt            time.Time      `json:"ends_at"`
	CertificatePrefix string         `gorm:"not null" json:"certificate_prefix"`
	CertificateLayout datatypes.JSON `json:"certificate_layout"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}

// LayoutConfig decodes the stored template document. An absent or
// empty document yields nil, which renders with the built-in defaults.
func (e *Event) LayoutConfig() (*render.LayoutConfig, error) {
	if len(e.CertificateLayout) == 0 {
		return nil, nil
	}
	var cfg render.LayoutConfig
	if err := json.Unmarshal(e.CertificateLayout, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode certificate layout: %w", err)
	}
	return &cfg, nil
}

// CompletionDate is the date printed on certificates: the event's end
// when set, otherwise its start.
func (e *Event) CompletionDate() time.Time {
	if !e.EndsAt.IsZero() {
		return e.EndsAt
	}
	return e.StartsAt
}
