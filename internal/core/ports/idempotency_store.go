package ports

import "context"

// IdempotencyRecord is what an Idempotency-Key currently holds.
type IdempotencyRecord struct {
	// ReservationID is 0 while the first request for the key is in flight.
	ReservationID int64
	// Fingerprint identifies the reservation body the key was first used with.
	Fingerprint string
}

// IdempotencyStore remembers which reservation a client-supplied
// Idempotency-Key produced.
type IdempotencyStore interface {
	// Claim reserves key for a request whose body has the given fingerprint.
	// When the key is already taken, claimed is false and rec describes the
	// earlier request.
	Claim(ctx context.Context, key, fingerprint string) (rec IdempotencyRecord, claimed bool, err error)
	// Complete records the reservation created under a claimed key.
	Complete(ctx context.Context, key, fingerprint string, id int64) error
	// Release frees a key so the next request can claim it.
	Release(ctx context.Context, key string) error
}
