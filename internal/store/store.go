// Package store is the catalog persistence boundary. All backends
// normalize listings to an explicit map keyed by code so downstream
// logic never sees backend-specific collection shapes.
package store

import (
	"context"
	"errors"

	"github.com/kinoxada/kinobot/internal/catalog"
)

// ErrCodeTaken is returned by PutMovie when a record with the same code
// already exists. The write is atomic create-if-absent, so two admins
// racing on one code cannot both succeed.
var ErrCodeTaken = errors.New("movie code already taken")

// Catalog is the document/key-value store consumed by the bot.
type Catalog interface {
	// GetMovie returns the record for a code, or nil if absent.
	GetMovie(ctx context.Context, code string) (*catalog.Movie, error)
	// PutMovie creates a record; ErrCodeTaken if the code exists.
	PutMovie(ctx context.Context, m catalog.Movie) error
	// DeleteMovie removes a record. Deleting an absent code is not an error.
	DeleteMovie(ctx context.Context, code string) error
	// ListMovies returns every record keyed by code.
	ListMovies(ctx context.Context) (map[string]catalog.Movie, error)
	// RecordUser marks a user as seen, creating the entry on first contact.
	RecordUser(ctx context.Context, userID string) error
	// CountUsers returns the number of distinct recorded users.
	CountUsers(ctx context.Context) (int, error)
}
