package staging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryStore_LoadMissing(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Load(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestMemoryStore_SaveLoadClear(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	draft := NewDraft(primitive.NewObjectID(), primitive.NewObjectID())
	draft.Config.Name = "Winter Block"
	require.NoError(t, store.Save(ctx, draft))

	loaded, err := store.Load(ctx, draft.StudentID)
	require.NoError(t, err)
	assert.Equal(t, "Winter Block", loaded.Config.Name)
	assert.Equal(t, draft.CoachID, loaded.CoachID)

	require.NoError(t, store.Clear(ctx, draft.StudentID))
	_, err = store.Load(ctx, draft.StudentID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestMemoryStore_ScopesPerStudent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	coachID := primitive.NewObjectID()

	first := NewDraft(primitive.NewObjectID(), coachID)
	first.Config.Name = "Alpha"
	second := NewDraft(primitive.NewObjectID(), coachID)
	second.Config.Name = "Beta"

	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	gotFirst, err := store.Load(ctx, first.StudentID)
	require.NoError(t, err)
	gotSecond, err := store.Load(ctx, second.StudentID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", gotFirst.Config.Name)
	assert.Equal(t, "Beta", gotSecond.Config.Name)
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	draft := NewDraft(primitive.NewObjectID(), primitive.NewObjectID())
	draft.Config.Name = "Original"
	require.NoError(t, store.Save(ctx, draft))

	loaded, err := store.Load(ctx, draft.StudentID)
	require.NoError(t, err)
	loaded.Config.Name = "Mutated"

	again, err := store.Load(ctx, draft.StudentID)
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Config.Name, "stored draft must not alias loaded copies")
}
