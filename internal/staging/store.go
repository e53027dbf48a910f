package staging

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrDraftNotFound is returned by Load when no draft is staged for the
// student.
var ErrDraftNotFound = errors.New("staged draft not found")

// Store is the durability port for staged drafts. While authoring is in
// progress the staged draft is the sole source of truth, so every Save must
// survive a full process restart until Clear is called. Drafts are scoped
// per student; there is no cross-client locking, the last write wins.
type Store interface {
	// Load restores the staged draft for one student. Returns
	// ErrDraftNotFound when nothing is staged.
	Load(ctx context.Context, studentID primitive.ObjectID) (*RoutineDraft, error)
	// Save persists the whole draft, replacing any previous staged state
	// for the same student.
	Save(ctx context.Context, draft *RoutineDraft) error
	// Clear discards the staged draft irrecoverably. Clearing an absent
	// draft is not an error.
	Clear(ctx context.Context, studentID primitive.ObjectID) error
}
