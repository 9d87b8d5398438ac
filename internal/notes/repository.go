// Package notes holds the note repository and the search coordinator: the
// rules deciding who sees, mutates and removes a note, applied on top of a
// store.Store.
package notes

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/quire/internal/access"
	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/store"
)

// Caller-facing messages.
const (
	MsgNotFoundOrDenied = "Note not found or access denied"
	MsgNotFound         = "Note not found"
	MsgAccessDenied     = "Access denied"
	MsgTitleRequired    = "title is required"
	MsgInvalidUserID    = "Invalid user ID format"
	MsgUserNotFound     = "User not found"
	MsgRemovedFromShare = "Removed from shared notes"
	MsgVersionMismatch  = "Note was modified by another request"
)

// Change event types published to a note's audience.
const (
	EventCreated  = "note.created"
	EventUpdated  = "note.updated"
	EventDeleted  = "note.deleted"
	EventShared   = "note.shared"
	EventUnshared = "note.unshared"
)

// Notifier receives a change event after it has been persisted.
type Notifier interface {
	NoteChanged(event, noteID string, audience []string)
}

// DeleteResult describes what a delete call did. Note is set only when the
// note itself was removed.
type DeleteResult struct {
	Outcome access.DeleteOutcome
	Note    *models.Note
	Message string
}

// Repository enforces visibility and mutation rules for notes.
type Repository struct {
	store  store.Store
	notify Notifier
}

// NewRepository returns a repository over s. notify may be nil.
func NewRepository(s store.Store, notify Notifier) *Repository {
	return &Repository{store: s, notify: notify}
}

// Create stores a new note authored by actor.
func (r *Repository) Create(ctx context.Context, actor, title, content string) (*models.Note, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperr.Validation(MsgTitleRequired)
	}
	n := &models.Note{
		Title:      title,
		Content:    content,
		Author:     actor,
		SharedWith: []string{},
	}
	if err := r.store.Save(ctx, n); err != nil {
		return nil, fmt.Errorf("notes: create: %w", err)
	}
	r.publish(EventCreated, n.ID, n.Audience())
	return n, nil
}

// Get returns the note when actor is its author or a shared user. Absent
// and hidden notes both yield the same NotFound error.
func (r *Repository) Get(ctx context.Context, actor, id string) (*models.Note, error) {
	if id == "" {
		return nil, apperr.NotFound(MsgNotFoundOrDenied)
	}
	n, err := r.store.FindOne(ctx, store.Filter{ID: id, VisibleTo: actor})
	if err != nil {
		return nil, lookupErr("get", err, MsgNotFoundOrDenied)
	}
	return n, nil
}

// ListVisible returns every note actor authored or has been shared on.
func (r *Repository) ListVisible(ctx context.Context, actor string) ([]models.Note, error) {
	out, err := r.store.FindMany(ctx, store.Filter{VisibleTo: actor})
	if err != nil {
		return nil, fmt.Errorf("notes: list: %w", err)
	}
	return out, nil
}

// Update applies ch to a visible note. When ifVersion is positive it must
// match the stored version.
func (r *Repository) Update(ctx context.Context, actor, id string, ch Changes, ifVersion int64) (*models.Note, error) {
	if err := ch.Validate(); err != nil {
		return nil, err
	}
	n, err := r.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if access.Authorize(actor, n, access.Write, "") == access.Deny {
		return nil, apperr.NotFound(MsgNotFoundOrDenied)
	}
	if ifVersion > 0 && n.Version != ifVersion {
		return nil, apperr.Conflict(MsgVersionMismatch)
	}
	ch.apply(n)
	if err := r.store.Save(ctx, n); err != nil {
		return nil, saveErr("update", err)
	}
	r.publish(EventUpdated, n.ID, n.Audience())
	return n, nil
}

// Delete hard-deletes the note when actor is the author, removes actor from
// the sharing set when actor is a shared user, and is forbidden otherwise.
func (r *Repository) Delete(ctx context.Context, actor, id string) (*DeleteResult, error) {
	if id == "" {
		return nil, apperr.NotFound(MsgNotFound)
	}
	n, err := r.store.FindOne(ctx, store.Filter{ID: id})
	if err != nil {
		return nil, lookupErr("delete", err, MsgNotFound)
	}

	switch outcome := access.ResolveDelete(actor, n); outcome {
	case access.DeleteNote:
		audience := n.Audience()
		if err := r.store.Delete(ctx, n); err != nil {
			return nil, saveErr("delete", err)
		}
		r.publish(EventDeleted, n.ID, audience)
		return &DeleteResult{Outcome: outcome, Note: n}, nil
	case access.RevokeSelf:
		audience := n.Audience()
		n.SharedWith = slices.DeleteFunc(n.SharedWith, func(u string) bool { return u == actor })
		if err := r.store.Save(ctx, n); err != nil {
			return nil, saveErr("delete", err)
		}
		r.publish(EventUnshared, n.ID, audience)
		return &DeleteResult{Outcome: outcome, Message: MsgRemovedFromShare}, nil
	default:
		return nil, apperr.Forbidden(MsgAccessDenied)
	}
}

// Share grants target read and write access. Only the author can share;
// for anyone else the note is reported as not found.
func (r *Repository) Share(ctx context.Context, actor, id, target string) error {
	if id == "" {
		return apperr.NotFound(MsgNotFoundOrDenied)
	}
	n, err := r.store.FindOne(ctx, store.Filter{ID: id, Author: actor})
	if err != nil {
		return lookupErr("share", err, MsgNotFoundOrDenied)
	}
	parsed, err := uuid.Parse(target)
	if err != nil {
		return apperr.Validation(MsgInvalidUserID)
	}
	// Stored ids are canonical lowercase hyphenated.
	target = parsed.String()
	exists, err := r.store.UserExists(ctx, target)
	if err != nil {
		return fmt.Errorf("notes: share: %w", err)
	}
	if !exists {
		return apperr.NotFound(MsgUserNotFound)
	}
	if access.Authorize(actor, n, access.Share, target) == access.Deny {
		return apperr.NotFound(MsgNotFoundOrDenied)
	}
	if target == n.Author || n.IsSharedWith(target) {
		return nil
	}

	n.SharedWith = append(n.SharedWith, target)
	if err := r.store.Save(ctx, n); err != nil {
		return saveErr("share", err)
	}
	r.publish(EventShared, n.ID, n.Audience())
	return nil
}

// Unshare removes target from the sharing set. The author may remove
// anyone; a shared user may only remove themselves.
func (r *Repository) Unshare(ctx context.Context, actor, id, target string) error {
	n, err := r.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if parsed, err := uuid.Parse(target); err == nil {
		target = parsed.String()
	}
	if access.Authorize(actor, n, access.Unshare, target) == access.Deny {
		return apperr.Forbidden(MsgAccessDenied)
	}
	if !n.IsSharedWith(target) {
		return nil
	}

	audience := n.Audience()
	n.SharedWith = slices.DeleteFunc(n.SharedWith, func(u string) bool { return u == target })
	if err := r.store.Save(ctx, n); err != nil {
		return saveErr("unshare", err)
	}
	r.publish(EventUnshared, n.ID, audience)
	return nil
}

func (r *Repository) publish(event, id string, audience []string) {
	if r.notify != nil {
		r.notify.NoteChanged(event, id, audience)
	}
}

// lookupErr maps a store miss to a coded NotFound and wraps anything else.
func lookupErr(op string, err error, notFound string) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	return fmt.Errorf("notes: %s: %w", op, err)
}

// saveErr maps version-checked write failures to coded errors.
func saveErr(op string, err error) error {
	switch {
	case errors.Is(err, apperr.ErrConflict):
		return apperr.Conflict(MsgVersionMismatch)
	case errors.Is(err, apperr.ErrNotFound):
		return apperr.NotFound(MsgNotFound)
	default:
		return fmt.Errorf("notes: %s: %w", op, err)
	}
}
