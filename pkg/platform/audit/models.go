package audit

import (
	"context"
	"encoding/json"
	"time"

	"catalog/pkg/domain"
)

// Entity types recorded in the ledger.
const (
	EntityProduct = "Product"
	EntityUser    = "User"
)

// Actions. Attempt actions are written by the interceptor before a mutating
// handler runs; outcome actions are written by services after it completes.
const (
	ActionCreateProductAttempt = "create_product_attempt"
	ActionUpdateProductAttempt = "update_product_attempt"
	ActionDeleteProductAttempt = "delete_product_attempt"

	ActionProductCreated = "product_created"
	ActionProductUpdated = "product_updated"
	ActionProductDeleted = "product_deleted"
	ActionUserLoggedIn   = "user_logged_in"
	ActionUserRegistered = "user_registered"
)

// Record is one append-only ledger row. Records are never updated or deleted.
type Record struct {
	ID         int64           `json:"id"`
	ActorID    int64           `json:"userId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   *int64          `json:"entityId"`
	Details    json.RawMessage `json:"details"`
	RequestID  string          `json:"requestId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	// Actor is joined on read; it is never written.
	Actor *Actor `json:"user,omitempty"`
}

// Actor is the identity that performed a recorded action, as shown in listings.
type Actor struct {
	ID       int64           `json:"id"`
	Username string          `json:"username"`
	Role     domain.RoleName `json:"role"`
}

// Entry is what callers hand to the Recorder. Details may be any JSON
// serializable value; it is stored opaquely.
type Entry struct {
	ActorID    int64
	Action     string
	EntityType string
	EntityID   *int64
	Details    any
}

// Filter narrows a ledger listing. Zero values mean "no constraint".
type Filter struct {
	ActorID    *int64
	Action     string
	EntityType string
	EntityID   *int64
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// Page is one page of records plus the total number of matches.
type Page struct {
	Total   int
	Records []*Record
}

// Store persists ledger rows.
type Store interface {
	// Append inserts rec and returns its id. The actor must exist.
	Append(ctx context.Context, rec *Record) (int64, error)
	// List returns matching records, newest first, with Actor populated.
	List(ctx context.Context, filter Filter) (*Page, error)
}

// Publisher fans a persisted record out to a secondary sink.
type Publisher interface {
	Publish(ctx context.Context, rec *Record) error
}

// Int64 returns a pointer to v, for optional entity ids.
func Int64(v int64) *int64 {
	return &v
}
