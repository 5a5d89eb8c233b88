package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/offlinefirst/robodesk/pkg/macro"
)

// Runner replays a loaded function. The player implements it.
type Runner interface {
	Play(ctx context.Context, fn macro.Function, rate float64, inputs map[string]string) (map[string]string, error)
}

// Options configures a Store.
type Options struct {
	Backend    Backend
	Logger     *slog.Logger
	Clock      func() time.Time
	AppVersion string
	Hostname   string
	NewID      func() string
}

// Store is the named function registry.
type Store struct {
	backend    Backend
	logger     *slog.Logger
	clock      func() time.Time
	appVersion string
	hostname   string
	newID      func() string
}

// Entry is a decoded stored function with its metadata.
type Entry = Document

// Failure describes one stored entry that could not be decoded.
type Failure struct {
	Name string
	Err  error
}

// Listing is the result of enumerating the store.
type Listing struct {
	Entries  []Entry
	Failures []Failure
}

// Names returns the names of the decodable entries in order.
func (l Listing) Names() []string {
	names := make([]string, 0, len(l.Entries))
	for _, e := range l.Entries {
		names = append(names, e.Name)
	}
	return names
}

// New constructs a Store. A nil Backend selects an in-memory backend.
func New(opts Options) *Store {
	s := &Store{
		backend:    opts.Backend,
		logger:     opts.Logger,
		clock:      opts.Clock,
		appVersion: opts.AppVersion,
		hostname:   opts.Hostname,
		newID:      opts.NewID,
	}
	if s.backend == nil {
		s.backend = NewMemoryBackend()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	if s.hostname == "" {
		if host, err := os.Hostname(); err == nil {
			s.hostname = host
		}
	}
	return s
}

// ValidateName checks that name can be used as a storage key.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("function name must not be empty")
	case name == "." || name == "..":
		return fmt.Errorf("function name %q is reserved", name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("function name %q must not start with '.'", name)
	case strings.ContainsAny(name, `/\`+"\x00"):
		return fmt.Errorf("function name %q must not contain path separators", name)
	}
	return nil
}

// Save persists fn under name. It fails with macro.ErrAlreadyExists when the
// name is taken; existing functions are never overwritten.
func (s *Store) Save(name string, fn macro.Function) error {
	if err := ValidateName(name); err != nil {
		return &macro.FunctionError{Op: "save", Name: name, Err: err}
	}
	if err := fn.Validate(); err != nil {
		return &macro.FunctionError{Op: "save", Name: name, Err: err}
	}

	doc := Document{
		SchemaVersion: SchemaVersion,
		ID:            s.newID(),
		Name:          name,
		CreatedAt:     s.clock().UTC(),
		Hostname:      s.hostname,
		AppVersion:    s.appVersion,
		Function:      fn,
	}
	data, err := encodeDocument(doc)
	if err != nil {
		return &macro.FunctionError{Op: "save", Name: name, Err: err}
	}

	if err := s.backend.Create(name, data); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return &macro.FunctionError{Op: "save", Name: name, Err: macro.ErrAlreadyExists}
		}
		return &macro.FunctionError{Op: "save", Name: name, Err: err}
	}

	s.logger.Info("function saved",
		slog.String("name", name),
		slog.String("id", doc.ID),
		slog.Int("events", len(fn.Events)),
		slog.Any("inputs", fn.InputVariables),
		slog.Any("outputs", fn.OutputVariables),
	)
	return nil
}

// Describe loads the full stored entry for name.
func (s *Store) Describe(name string) (Entry, error) {
	if err := ValidateName(name); err != nil {
		return Entry{}, &macro.FunctionError{Op: "load", Name: name, Err: err}
	}
	data, err := s.backend.Get(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, &macro.FunctionError{Op: "load", Name: name, Err: macro.ErrNotFound}
		}
		return Entry{}, &macro.FunctionError{Op: "load", Name: name, Err: err}
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return Entry{}, &macro.FunctionError{Op: "load", Name: name, Err: err}
	}
	// The key is authoritative; a renamed file keeps working.
	doc.Name = name
	return doc, nil
}

// Load returns the function stored under name.
func (s *Store) Load(name string) (macro.Function, error) {
	entry, err := s.Describe(name)
	if err != nil {
		return macro.Function{}, err
	}
	return entry.Function, nil
}

// Exists reports whether name is present. Backend errors other than a missing
// key are returned.
func (s *Store) Exists(name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	_, err := s.backend.Get(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("check %q: %w", name, err)
	}
}

// List decodes every stored entry. Entries that fail to decode are reported
// in Failures and logged; they never abort the enumeration.
func (s *Store) List() (Listing, error) {
	keys, err := s.backend.Keys()
	if err != nil {
		return Listing{}, fmt.Errorf("list functions: %w", err)
	}

	var listing Listing
	for _, key := range keys {
		if ValidateName(key) != nil {
			continue
		}
		entry, err := s.Describe(key)
		if err != nil {
			s.logger.Warn("skipping unreadable function", slog.String("name", key), slog.Any("error", err))
			listing.Failures = append(listing.Failures, Failure{Name: key, Err: err})
			continue
		}
		listing.Entries = append(listing.Entries, entry)
	}
	return listing, nil
}

// Delete removes name from the store.
func (s *Store) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return &macro.FunctionError{Op: "delete", Name: name, Err: err}
	}
	if err := s.backend.Delete(name); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &macro.FunctionError{Op: "delete", Name: name, Err: macro.ErrNotFound}
		}
		return &macro.FunctionError{Op: "delete", Name: name, Err: err}
	}
	s.logger.Info("function deleted", slog.String("name", name))
	return nil
}

// Play loads name and hands it to runner.
func (s *Store) Play(ctx context.Context, runner Runner, name string, rate float64, inputs map[string]string) (map[string]string, error) {
	fn, err := s.Load(name)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("playing function", slog.String("name", name), slog.Float64("rate", rate))
	return runner.Play(ctx, fn, rate, inputs)
}
