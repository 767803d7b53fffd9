// Package notes is the standalone private-notes feature. It is
// unauthenticated and entirely local: notes live under a single
// key/value entry of their own, outside the auth namespace, and never
// touch the remote store.
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tasjeel-app/tasjeel/pkg/kv"
)

const storageKey = "private.notes"

// Note is one private note.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Book manages the note collection, persisting the whole set on every
// change. Newest notes come first.
type Book struct {
	store kv.Store
	notes []Note
}

// NewBook loads any persisted notes from the store.
func NewBook(ctx context.Context, store kv.Store) (*Book, error) {
	b := &Book{store: store}
	raw, err := store.Get(ctx, storageKey)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return b, nil
		}
		return nil, fmt.Errorf("load notes: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &b.notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return b, nil
}

// All returns the notes, newest first.
func (b *Book) All() []Note {
	out := make([]Note, len(b.notes))
	copy(out, b.notes)
	return out
}

// Save creates or updates a note. A note with neither title nor content
// is not saved; an empty title becomes "Untitled".
func (b *Book) Save(ctx context.Context, id, title, content string) (*Note, error) {
	title = strings.TrimSpace(title)
	if title == "" && strings.TrimSpace(content) == "" {
		return nil, nil
	}
	if title == "" {
		title = "Untitled"
	}

	now := time.Now()
	if id != "" {
		for i := range b.notes {
			if b.notes[i].ID == id {
				b.notes[i].Title = title
				b.notes[i].Content = content
				b.notes[i].UpdatedAt = now
				if err := b.persist(ctx); err != nil {
					return nil, err
				}
				note := b.notes[i]
				return &note, nil
			}
		}
	}

	note := Note{ID: uuid.NewString(), Title: title, Content: content, CreatedAt: now, UpdatedAt: now}
	b.notes = append([]Note{note}, b.notes...)
	if err := b.persist(ctx); err != nil {
		return nil, err
	}
	return &note, nil
}

// Delete removes a note by id. Removing an unknown id is a no-op.
func (b *Book) Delete(ctx context.Context, id string) error {
	for i := range b.notes {
		if b.notes[i].ID == id {
			b.notes = append(b.notes[:i], b.notes[i+1:]...)
			return b.persist(ctx)
		}
	}
	return nil
}

func (b *Book) persist(ctx context.Context) error {
	payload, err := json.Marshal(b.notes)
	if err != nil {
		return fmt.Errorf("encode notes: %w", err)
	}
	return b.store.Set(ctx, storageKey, string(payload))
}
