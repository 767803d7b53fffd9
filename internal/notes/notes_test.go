package notes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasjeel-app/tasjeel/pkg/kv"
)

func TestSaveAndReload(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()

	book, err := NewBook(ctx, mem)
	require.NoError(t, err)
	assert.Empty(t, book.All())

	first, err := book.Save(ctx, "", "Groceries", "milk, bread")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.NotEmpty(t, first.ID)

	second, err := book.Save(ctx, "", "Ideas", "")
	require.NoError(t, err)
	require.NotNil(t, second)

	// Newest first.
	all := book.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Ideas", all[0].Title)
	assert.Equal(t, "Groceries", all[1].Title)

	// The set survives a fresh Book over the same store.
	reloaded, err := NewBook(ctx, mem)
	require.NoError(t, err)
	assert.Len(t, reloaded.All(), 2)
}

func TestSaveBlankNoteIsDropped(t *testing.T) {
	ctx := context.Background()
	book, err := NewBook(ctx, kv.NewMemory())
	require.NoError(t, err)

	note, err := book.Save(ctx, "", "  ", "   ")
	require.NoError(t, err)
	assert.Nil(t, note)
	assert.Empty(t, book.All())
}

func TestSaveDefaultsUntitled(t *testing.T) {
	ctx := context.Background()
	book, err := NewBook(ctx, kv.NewMemory())
	require.NoError(t, err)

	note, err := book.Save(ctx, "", "", "content only")
	require.NoError(t, err)
	require.NotNil(t, note)
	assert.Equal(t, "Untitled", note.Title)
}

func TestSaveUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	book, err := NewBook(ctx, kv.NewMemory())
	require.NoError(t, err)

	created, err := book.Save(ctx, "", "Draft", "v1")
	require.NoError(t, err)

	updated, err := book.Save(ctx, created.ID, "Draft", "v2")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "v2", updated.Content)
	assert.Len(t, book.All(), 1)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	book, err := NewBook(ctx, mem)
	require.NoError(t, err)

	note, err := book.Save(ctx, "", "Gone soon", "x")
	require.NoError(t, err)

	require.NoError(t, book.Delete(ctx, note.ID))
	assert.Empty(t, book.All())

	// Unknown ids are a no-op.
	require.NoError(t, book.Delete(ctx, "no-such-id"))
}
