// Package report defines lost and found reports and the repositories that
// persist them.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	// ErrPersistence wraps every storage read or write failure.
	ErrPersistence = errors.New("report persistence failure")
	// ErrInvalidReport is returned when a report fails validation.
	ErrInvalidReport = errors.New("invalid report")
)

// Type is the kind of a report.
type Type string

const (
	TypeLost  Type = "lost"
	TypeFound Type = "found"
)

// ParseType accepts "lost" or "found" in any case.
func ParseType(s string) (Type, bool) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeLost:
		return TypeLost, true
	case TypeFound:
		return TypeFound, true
	}
	return "", false
}

// Opposite returns the type a report is matched against.
func (t Type) Opposite() Type {
	if t == TypeLost {
		return TypeFound
	}
	return TypeLost
}

// Report is a persisted lost or found item. Reports are never mutated once
// appended.
type Report struct {
	ID        string    `json:"id" validate:"required,uuid"`
	Type      Type      `json:"type" validate:"required,oneof=lost found"`
	Item      string    `json:"item,omitempty"`
	Color     string    `json:"color,omitempty" validate:"omitempty,lowercase"`
	Location  string    `json:"location,omitempty"`
	DateISO   string    `json:"date_iso,omitempty" validate:"omitempty,datetime=2006-01-02"`
	UserID    string    `json:"user_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	Text      string    `json:"text"`
	Channel   string    `json:"channel,omitempty"`
	ChatID    string    `json:"chat_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// New returns a report of type t with a fresh identifier.
func New(t Type) Report {
	return Report{ID: uuid.NewString(), Type: t}
}

var (
	vOnce sync.Once
	v     *validator.Validate
)

func validate() *validator.Validate {
	vOnce.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
	})
	return v
}

// Validate checks identifier, type and date format.
func (r Report) Validate() error {
	if err := validate().Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}
	return nil
}

// Repository is an append-only report store. Query returns reports in an
// unspecified order.
type Repository interface {
	Append(ctx context.Context, r Report) error
	Query(ctx context.Context, keep func(Report) bool) ([]Report, error)
}

// Store is a Repository that holds resources.
type Store interface {
	Repository
	Close() error
}

// All keeps every report.
func All(Report) bool { return true }

// OfType keeps reports of type t.
func OfType(t Type) func(Report) bool {
	return func(r Report) bool { return r.Type == t }
}

// ByUser keeps reports filed by userID.
func ByUser(userID string) func(Report) bool {
	return func(r Report) bool { return r.UserID == userID }
}

// prepare stamps the creation time and validates r before it is stored.
func prepare(r Report, now func() time.Time) (Report, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now().UTC()
	}
	if err := r.Validate(); err != nil {
		return Report{}, err
	}
	return r, nil
}

// Open opens the store for driver ("json" or "sqlite") at path.
func Open(driver, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "json":
		return NewJSONStore(path)
	case "sqlite":
		return NewSQLiteStore(path)
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}
