package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/rs/zerolog"

	"github.com/eventos/reservas-api/internal/core/domain"
	"github.com/eventos/reservas-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubReservationRepo struct {
	rows      map[int64]domain.Reservation
	nextID    int64
	createErr error
}

func newStubReservationRepo() *stubReservationRepo {
	return &stubReservationRepo{rows: make(map[int64]domain.Reservation)}
}

func (r *stubReservationRepo) Create(_ context.Context, res *domain.Reservation) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	res.ID = r.nextID
	r.rows[res.ID] = *res
	return nil
}

func (r *stubReservationRepo) FindByID(_ context.Context, id int64) (*domain.Reservation, error) {
	res, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &res, nil
}

func (r *stubReservationRepo) List(_ context.Context) ([]domain.Reservation, error) {
	out := make([]domain.Reservation, 0, len(r.rows))
	for _, res := range r.rows {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubReservationRepo) Update(_ context.Context, res *domain.Reservation) error {
	if _, ok := r.rows[res.ID]; !ok {
		return domain.ErrNotFound
	}
	r.rows[res.ID] = *res
	return nil
}

func (r *stubReservationRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *stubReservationRepo) CountByEventType(_ context.Context) ([]domain.EventTypeCount, error) {
	counts := map[string]int64{}
	for _, res := range r.rows {
		counts[res.EventType]++
	}
	out := make([]domain.EventTypeCount, 0, len(counts))
	for ev, n := range counts {
		out = append(out, domain.EventTypeCount{EventType: ev, Total: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventType < out[j].EventType })
	return out, nil
}

type stubQueue struct {
	accept bool
	queued []domain.Reservation
}

func (q *stubQueue) Enqueue(r domain.Reservation) bool {
	if !q.accept {
		return false
	}
	q.queued = append(q.queued, r)
	return true
}

type stubIdempotency struct {
	keys        map[string]ports.IdempotencyRecord
	claimErr    error
	completeErr error
	released    []string
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]ports.IdempotencyRecord)}
}

func (s *stubIdempotency) Claim(_ context.Context, key, fingerprint string) (ports.IdempotencyRecord, bool, error) {
	if s.claimErr != nil {
		return ports.IdempotencyRecord{}, false, s.claimErr
	}
	if rec, ok := s.keys[key]; ok {
		return rec, false, nil
	}
	s.keys[key] = ports.IdempotencyRecord{Fingerprint: fingerprint}
	return ports.IdempotencyRecord{Fingerprint: fingerprint}, true, nil
}

func (s *stubIdempotency) Complete(_ context.Context, key, fingerprint string, id int64) error {
	if s.completeErr != nil {
		return s.completeErr
	}
	s.keys[key] = ports.IdempotencyRecord{ReservationID: id, Fingerprint: fingerprint}
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, key string) error {
	delete(s.keys, key)
	s.released = append(s.released, key)
	return nil
}

func validInput() ports.ReservationInput {
	return ports.ReservationInput{
		ClientName: "ana",
		EventType:  "Cumpleaños",
		Provider:   "Proveedor A",
		Date:       "2025-12-01",
		Email:      "ana@x.com",
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestReservationService_Lifecycle(t *testing.T) {
	repo := newStubReservationRepo()
	queue := &stubQueue{accept: true}
	svc := NewReservationService(repo, queue, nil, zerolog.Nop())
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput(), "")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID != 1 {
		t.Fatalf("expected id 1, got %d", created.ID)
	}
	if len(queue.queued) != 1 || queue.queued[0].Email != "ana@x.com" {
		t.Fatalf("expected confirmation to be queued, got %+v", queue.queued)
	}

	list, err := svc.List(ctx)
	if err != nil || len(list) != 1 || list[0] != *created {
		t.Fatalf("unexpected list %+v (err %v)", list, err)
	}

	in := validInput()
	in.Provider = "Proveedor B"
	if _, err := svc.Update(ctx, created.ID, in); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	list, _ = svc.List(ctx)
	if list[0].Provider != "Proveedor B" || list[0].ClientName != "ana" {
		t.Fatalf("expected only provider to change, got %+v", list[0])
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	list, _ = svc.List(ctx)
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %+v", list)
	}
}

func TestReservationService_Create_Validation(t *testing.T) {
	repo := newStubReservationRepo()
	queue := &stubQueue{accept: true}
	svc := NewReservationService(repo, queue, nil, zerolog.Nop())

	blank := validInput()
	blank.Provider = "   "
	badDate := validInput()
	badDate.Date = "01/12/2025"

	for name, in := range map[string]ports.ReservationInput{"blank provider": blank, "bad date": badDate} {
		if _, err := svc.Create(context.Background(), in, ""); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", name, err)
		}
	}
	if len(repo.rows) != 0 || len(queue.queued) != 0 {
		t.Fatalf("invalid input must not be stored or notified")
	}
}

func TestReservationService_Create_TrimsFields(t *testing.T) {
	svc := NewReservationService(newStubReservationRepo(), &stubQueue{accept: true}, nil, zerolog.Nop())

	in := validInput()
	in.ClientName = "  ana  "
	created, err := svc.Create(context.Background(), in, "")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ClientName != "ana" {
		t.Fatalf("expected trimmed name, got %q", created.ClientName)
	}
}

func TestReservationService_Create_QueueFullStillSucceeds(t *testing.T) {
	repo := newStubReservationRepo()
	svc := NewReservationService(repo, &stubQueue{accept: false}, nil, zerolog.Nop())

	if _, err := svc.Create(context.Background(), validInput(), ""); err != nil {
		t.Fatalf("Create must not fail when the queue is full: %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected reservation to be stored")
	}
}

func TestReservationService_Create_StoreFailure(t *testing.T) {
	repo := newStubReservationRepo()
	repo.createErr = errors.New("database is locked")
	queue := &stubQueue{accept: true}
	idem := newStubIdempotency()
	svc := NewReservationService(repo, queue, idem, zerolog.Nop())

	if _, err := svc.Create(context.Background(), validInput(), "key-1"); err == nil {
		t.Fatalf("expected error")
	}
	if len(queue.queued) != 0 {
		t.Fatalf("failed create must not be notified")
	}
	if len(idem.released) != 1 || idem.released[0] != "key-1" {
		t.Fatalf("expected idempotency key to be released, got %v", idem.released)
	}
}

func TestReservationService_Create_IdempotentReplay(t *testing.T) {
	repo := newStubReservationRepo()
	queue := &stubQueue{accept: true}
	svc := NewReservationService(repo, queue, newStubIdempotency(), zerolog.Nop())
	ctx := context.Background()

	first, err := svc.Create(ctx, validInput(), "key-1")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	second, err := svc.Create(ctx, validInput(), "key-1")
	if err != nil {
		t.Fatalf("replay returned error: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected replay of id %d, got %d", first.ID, second.ID)
	}
	if len(repo.rows) != 1 || len(queue.queued) != 1 {
		t.Fatalf("replay must not insert or notify again")
	}

	if _, err := svc.Create(ctx, validInput(), "key-2"); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if len(repo.rows) != 2 {
		t.Fatalf("a new key must insert")
	}
}

func TestReservationService_Create_KeyInFlight(t *testing.T) {
	idem := newStubIdempotency()
	r, _ := buildReservation(validInput())
	idem.keys["busy"] = ports.IdempotencyRecord{Fingerprint: reservationFingerprint(r)}
	svc := NewReservationService(newStubReservationRepo(), &stubQueue{accept: true}, idem, zerolog.Nop())

	if _, err := svc.Create(context.Background(), validInput(), "busy"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestReservationService_Create_KeyReusedWithDifferentBody(t *testing.T) {
	repo := newStubReservationRepo()
	svc := NewReservationService(repo, &stubQueue{accept: true}, newStubIdempotency(), zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Create(ctx, validInput(), "key-1"); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	other := validInput()
	other.ClientName = "zed"
	if _, err := svc.Create(ctx, other, "key-1"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("rejected request must not insert, got %d rows", len(repo.rows))
	}

	// Whitespace differences normalise to the same body and still replay.
	same := validInput()
	same.ClientName = "  ana "
	replay, err := svc.Create(ctx, same, "key-1")
	if err != nil || replay.ID != 1 {
		t.Fatalf("expected replay of id 1, got %+v, %v", replay, err)
	}
}

func TestReservationService_Create_KeyOfDeletedReservation(t *testing.T) {
	repo := newStubReservationRepo()
	queue := &stubQueue{accept: true}
	idem := newStubIdempotency()
	svc := NewReservationService(repo, queue, idem, zerolog.Nop())
	ctx := context.Background()

	first, err := svc.Create(ctx, validInput(), "key-1")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := svc.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	second, err := svc.Create(ctx, validInput(), "key-1")
	if err != nil {
		t.Fatalf("expected a fresh booking, got %v", err)
	}
	if second.ID == first.ID || len(repo.rows) != 1 || len(queue.queued) != 2 {
		t.Fatalf("expected a new stored and notified reservation, got id %d rows %d queued %d",
			second.ID, len(repo.rows), len(queue.queued))
	}
	if idem.keys["key-1"].ReservationID != second.ID {
		t.Fatalf("key must now point at %d, got %+v", second.ID, idem.keys["key-1"])
	}
}

func TestReservationService_Create_CompleteFailureReleasesKey(t *testing.T) {
	repo := newStubReservationRepo()
	idem := newStubIdempotency()
	idem.completeErr = errors.New("redis timeout")
	svc := NewReservationService(repo, &stubQueue{accept: true}, idem, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Create(ctx, validInput(), "key-1"); err != nil {
		t.Fatalf("booking must succeed when the key cannot be recorded: %v", err)
	}
	if _, pending := idem.keys["key-1"]; pending {
		t.Fatalf("key must not stay pending after a failed Complete")
	}

	idem.completeErr = nil
	if _, err := svc.Create(ctx, validInput(), "key-1"); err != nil {
		t.Fatalf("retry must not be rejected as in progress: %v", err)
	}
}

func TestReservationService_Create_IdempotencyStoreDown(t *testing.T) {
	repo := newStubReservationRepo()
	idem := newStubIdempotency()
	idem.claimErr = errors.New("connection refused")
	svc := NewReservationService(repo, &stubQueue{accept: true}, idem, zerolog.Nop())

	if _, err := svc.Create(context.Background(), validInput(), "key-1"); err != nil {
		t.Fatalf("Create must degrade to a plain insert: %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected reservation to be stored")
	}
}

func TestReservationService_UpdateDelete_NotFound(t *testing.T) {
	svc := NewReservationService(newStubReservationRepo(), &stubQueue{accept: true}, nil, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Update(ctx, 99, validInput()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("update: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("delete: expected ErrNotFound, got %v", err)
	}
}

func TestReservationService_Update_RequiresAllFields(t *testing.T) {
	repo := newStubReservationRepo()
	svc := NewReservationService(repo, &stubQueue{accept: true}, nil, zerolog.Nop())
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput(), "")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	partial := ports.ReservationInput{Provider: "Proveedor B"}
	if _, err := svc.Update(ctx, created.ID, partial); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if repo.rows[created.ID].Provider != "Proveedor A" {
		t.Fatalf("rejected update must not change the row")
	}
}

func TestReservationService_Summary(t *testing.T) {
	svc := NewReservationService(newStubReservationRepo(), &stubQueue{accept: true}, nil, zerolog.Nop())
	ctx := context.Background()

	for _, ev := range []string{"Cumpleaños", "Carnavales", "Cumpleaños"} {
		in := validInput()
		in.EventType = ev
		if _, err := svc.Create(ctx, in, ""); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	counts, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	want := []domain.EventTypeCount{{EventType: "Carnavales", Total: 1}, {EventType: "Cumpleaños", Total: 2}}
	if len(counts) != len(want) || counts[0] != want[0] || counts[1] != want[1] {
		t.Fatalf("unexpected summary %+v", counts)
	}
}
