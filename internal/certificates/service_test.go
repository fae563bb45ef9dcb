package certificates

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"event-portal/certificate-service/internal/events"
	"event-portal/certificate-service/internal/render"
)

// memRepo is an in-memory Repository that enforces the same uniqueness
// constraints as the schema, so issuance races behave as they do
// against PostgreSQL.
type memRepo struct {
	mu       sync.Mutex
	byKey    map[string]*CertificateRecord // event_id + participant_name
	byNumber map[string]*CertificateRecord
	counters map[uuid.UUID]int
}

func newMemRepo() *memRepo {
	return &memRepo{
		byKey:    make(map[string]*CertificateRecord),
		byNumber: make(map[string]*CertificateRecord),
		counters: make(map[uuid.UUID]int),
	}
}

func key(eventID uuid.UUID, name string) string {
	return eventID.String() + "|" + name
}

func (m *memRepo) GetByEventAndParticipant(ctx context.Context, eventID uuid.UUID, name string) (*CertificateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.byKey[key(eventID, name)]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (m *memRepo) GetByNumber(ctx context.Context, number string) (*CertificateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.byNumber[number]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (m *memRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*CertificateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*CertificateRecord
	for _, r := range m.byKey {
		if r.EventID == eventID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memRepo) NextCounterValue(ctx context.Context, eventID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[eventID]++
	return m.counters[eventID], nil
}

func (m *memRepo) CreateRecord(ctx context.Context, record *CertificateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(record.EventID, record.ParticipantName)
	if _, ok := m.byKey[k]; ok {
		return ErrDuplicate
	}
	if _, ok := m.byNumber[record.CertificateNumber]; ok {
		return ErrDuplicate
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	copied := *record
	m.byKey[k] = &copied
	m.byNumber[record.CertificateNumber] = &copied
	return nil
}

func (m *memRepo) UpdateArtifacts(ctx context.Context, id uuid.UUID, pdfURL, pngURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byKey {
		if r.ID == id {
			r.PDFURL = pdfURL
			r.PNGURL = pngURL
			r.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNotFound
}

type memEvents struct {
	event *events.Event
}

func (m *memEvents) GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error) {
	if m.event == nil || m.event.ID != id {
		return nil, events.ErrNotFound
	}
	return m.event, nil
}

type stubRenderer struct{}

func (stubRenderer) Render(ctx context.Context, cfg *render.LayoutConfig, data render.DataRecord) (*render.Output, error) {
	return &render.Output{
		PDF: []byte("%PDF " + data.CertificateNumber),
		PNG: []byte("png " + data.CertificateNumber),
	}, nil
}

type memStore struct {
	mu      sync.Mutex
	uploads map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{uploads: make(map[string][]byte)}
}

func (m *memStore) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads[key] = body
	return "https://cdn.test/" + key, nil
}

func testEvent() *events.Event {
	return &events.Event{
		ID:                uuid.New(),
		Title:             "Demo Day",
		Venue:             "Main Hall",
		StartsAt:          time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC),
		EndsAt:            time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC),
		CertificatePrefix: "EVT",
	}
}

func newTestService(event *events.Event) (*Service, *memRepo, *memStore) {
	repo := newMemRepo()
	store := newMemStore()
	svc := NewService(repo, &memEvents{event: event}, stubRenderer{}, store, zap.NewNop())
	return svc, repo, store
}

func TestIssueFirstCertificate(t *testing.T) {
	event := testEvent()
	svc, _, _ := newTestService(event)

	record, created, err := svc.Issue(context.Background(), event.ID, uuid.New(), "Ada Lovelace")
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, "EVT-001", record.CertificateNumber)
	assert.Equal(t, "Ada Lovelace", record.ParticipantName)
	assert.Equal(t, event.EndsAt, record.CompletionDate)
}

func TestIssueIsIdempotent(t *testing.T) {
	event := testEvent()
	svc, _, _ := newTestService(event)
	ctx := context.Background()
	userID := uuid.New()

	first, created, err := svc.Issue(ctx, event.ID, userID, "Ada Lovelace")
	require.NoError(t, err)
	require.True(t, created)

	// Repeat with messy whitespace; the normalized name matches.
	second, created, err := svc.Issue(ctx, event.ID, userID, "  Ada   Lovelace ")
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CertificateNumber, second.CertificateNumber)
}

func TestIssueSequentialNumbers(t *testing.T) {
	event := testEvent()
	svc, _, _ := newTestService(event)
	ctx := context.Background()

	for i, name := range []string{"Ada Lovelace", "Grace Hopper", "Alan Turing"} {
		record, _, err := svc.Issue(ctx, event.ID, uuid.New(), name)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("EVT-%03d", i+1), record.CertificateNumber)
	}
}

func TestIssueRejectsBlankName(t *testing.T) {
	event := testEvent()
	svc, _, _ := newTestService(event)

	_, _, err := svc.Issue(context.Background(), event.ID, uuid.New(), "   ")
	assert.Error(t, err)
}

func TestIssueUnknownEvent(t *testing.T) {
	svc, _, _ := newTestService(testEvent())

	_, _, err := svc.Issue(context.Background(), uuid.New(), uuid.New(), "Ada Lovelace")
	assert.ErrorIs(t, err, events.ErrNotFound)
}

func TestConcurrentIssueSameParticipant(t *testing.T) {
	event := testEvent()
	svc, repo, _ := newTestService(event)
	userID := uuid.New()

	const workers = 20
	numbers := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record, _, err := svc.Issue(context.Background(), event.ID, userID, "Ada Lovelace")
			if assert.NoError(t, err) {
				numbers[i] = record.CertificateNumber
			}
		}(i)
	}
	wg.Wait()

	// Every caller sees the same certificate, and exactly one row exists.
	for _, n := range numbers {
		assert.Equal(t, numbers[0], n)
	}
	records, err := repo.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestConcurrentIssueDistinctParticipants(t *testing.T) {
	event := testEvent()
	svc, repo, _ := newTestService(event)

	const workers = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := svc.Issue(context.Background(), event.ID, uuid.New(), fmt.Sprintf("Participant %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	records, err := repo.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, records, workers)

	seen := make(map[string]bool)
	for _, r := range records {
		assert.False(t, seen[r.CertificateNumber], "duplicate number %s", r.CertificateNumber)
		seen[r.CertificateNumber] = true
	}
}

// racingRepo injects a competing insert between the counter draw and
// the record insert, forcing the lost-race path.
type racingRepo struct {
	*memRepo
	event  *events.Event
	raced  bool
	userID uuid.UUID
}

func (r *racingRepo) CreateRecord(ctx context.Context, record *CertificateRecord) error {
	if !r.raced {
		r.raced = true
		winnerValue, _ := r.memRepo.NextCounterValue(ctx, record.EventID)
		winner := &CertificateRecord{
			ID:                uuid.New(),
			CertificateNumber: FormatNumber(r.event.CertificatePrefix, winnerValue),
			EventID:           record.EventID,
			UserID:            r.userID,
			ParticipantName:   record.ParticipantName,
			CompletionDate:    record.CompletionDate,
		}
		if err := r.memRepo.CreateRecord(ctx, winner); err != nil {
			return err
		}
	}
	return r.memRepo.CreateRecord(ctx, record)
}

func TestLostRaceBurnsCounterValue(t *testing.T) {
	event := testEvent()
	repo := &racingRepo{memRepo: newMemRepo(), event: event, userID: uuid.New()}
	svc := NewService(repo, &memEvents{event: event}, stubRenderer{}, newMemStore(), zap.NewNop())
	ctx := context.Background()

	// The loser drew EVT-001, the injected winner drew EVT-002 and
	// inserted first; the loser adopts the winner's record.
	record, created, err := svc.Issue(ctx, event.ID, uuid.New(), "Ada Lovelace")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "EVT-002", record.CertificateNumber)

	// EVT-001 was consumed and never reissued: the next participant
	// gets EVT-003, leaving a permanent gap.
	next, _, err := svc.Issue(ctx, event.ID, uuid.New(), "Grace Hopper")
	require.NoError(t, err)
	assert.Equal(t, "EVT-003", next.CertificateNumber)
}

func TestIssueAndRenderStoresArtifactsOnce(t *testing.T) {
	event := testEvent()
	svc, _, store := newTestService(event)
	ctx := context.Background()
	userID := uuid.New()

	result, err := svc.IssueAndRender(ctx, event.ID, userID, "Ada Lovelace")
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.NotEmpty(t, result.PDF)
	assert.NotEmpty(t, result.PNG)
	assert.Contains(t, result.Record.PDFURL, "EVT-001.pdf")
	assert.Contains(t, result.Record.PNGURL, "EVT-001.png")
	assert.Len(t, store.uploads, 2)

	// A second call re-renders for the response but does not upload.
	again, err := svc.IssueAndRender(ctx, event.ID, userID, "Ada Lovelace")
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.NotEmpty(t, again.PDF)
	assert.Len(t, store.uploads, 2)
}

func TestVerify(t *testing.T) {
	event := testEvent()
	svc, _, _ := newTestService(event)
	ctx := context.Background()

	record, _, err := svc.Issue(ctx, event.ID, uuid.New(), "Ada Lovelace")
	require.NoError(t, err)

	result, err := svc.Verify(ctx, record.CertificateNumber)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "Ada Lovelace", result.ParticipantName)
	assert.Equal(t, "Demo Day", result.EventTitle)

	result, err = svc.Verify(ctx, "EVT-999")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Empty(t, result.ParticipantName)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "EVT-001", FormatNumber("EVT", 1))
	assert.Equal(t, "EVT-042", FormatNumber("EVT", 42))
	assert.Equal(t, "EVT-999", FormatNumber("EVT", 999))
	assert.Equal(t, "EVT-1000", FormatNumber("EVT", 1000))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", NormalizeName("  Ada   Lovelace "))
	assert.Equal(t, "Ada Lovelace", NormalizeName("Ada Lovelace"))
	assert.Equal(t, "", NormalizeName("   "))
}
