// Package store defines the ModelStore interface for keeping a catalog of
// fitted cascade models under a name.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/nvandessel/mina/internal/cascade"
	"github.com/nvandessel/mina/internal/constants"
)

// ErrNotFound is returned when no model is stored under a name.
var ErrNotFound = errors.New("model not found")

// ErrInvalidName is returned for names that cannot be used as catalog keys.
var ErrInvalidName = errors.New("invalid model name")

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// Entry is a catalogued model and its metadata.
type Entry struct {
	Name       string          `json:"name"`
	Source     string          `json:"source,omitempty"` // input trace the model was fitted from
	Root       float64         `json:"root"`
	Increments int             `json:"increments"`
	Levels     int             `json:"levels"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Scope      constants.Scope `json:"scope,omitempty"` // set by MultiModelStore
	Model      *cascade.Model  `json:"-"`               // nil in List results
}

// ModelStore persists fitted models by name.
type ModelStore interface {
	// Save stores m under name, replacing any model already stored there.
	// Replacing a model keeps its CreatedAt.
	Save(ctx context.Context, name, source string, m *cascade.Model) error

	// Load returns the entry for name with its Model set.
	Load(ctx context.Context, name string) (*Entry, error)

	// List returns all entries ordered by name, without models.
	List(ctx context.Context) ([]Entry, error)

	// Delete removes name. Returns ErrNotFound if absent.
	Delete(ctx context.Context, name string) error

	Close() error
}

// ValidateName checks that name is 1-64 characters of letters, digits,
// '.', '_' or '-', starting with a letter or digit.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func newEntry(name, source string, m *cascade.Model, created, updated time.Time) Entry {
	return Entry{
		Name:       name,
		Source:     source,
		Root:       m.Root(),
		Increments: m.Increments(),
		Levels:     m.Depth(),
		CreatedAt:  created,
		UpdatedAt:  updated,
		Model:      m,
	}
}
