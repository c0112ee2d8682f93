// Package output provides formatters for displaying validation results,
// bundle previews, history listings, and card listings in various output
// formats (pretty, plain, json).
//
// The package uses a registry pattern so formatters can be selected at
// runtime:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, report); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Validation summarizes a validated archive.
type Validation struct {
	// Filename is the archive that was validated.
	Filename string `json:"filename"`

	// FormatVersion is the manifest generation.
	FormatVersion int `json:"format_version"`

	// Mode is "single" or "bundle".
	Mode string `json:"mode"`

	// Entries is the number of archive entries parsed.
	Entries int `json:"entries"`

	// Size is the archive size in bytes.
	Size int64 `json:"size"`

	// Cards is the number of cards described by the manifest.
	Cards int `json:"cards"`

	// HasHistory reports whether the manifest carries edit history.
	HasHistory bool `json:"has_history"`
}

// PreviewRow is one bundle card offered for selection before import.
type PreviewRow struct {
	ID           string    `json:"id"`
	Sender       string    `json:"sender,omitempty"`
	Occasion     string    `json:"occasion,omitempty"`
	Date         time.Time `json:"date"`
	HasThumbnail bool      `json:"has_thumbnail"`
}

// HistoryRow is one retained snapshot of a card.
type HistoryRow struct {
	Version  int       `json:"version"`
	EditedAt time.Time `json:"edited_at"`
	Fields   []string  `json:"fields,omitempty"`
	Slots    []string  `json:"slots,omitempty"`
}

// CardRow is one stored card in a listing.
type CardRow struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender,omitempty"`
	Occasion  string    `json:"occasion,omitempty"`
	Date      time.Time `json:"date"`
	Favorite  bool      `json:"favorite"`
	Snapshots int       `json:"snapshots"`
}

// Report is the complete output data for formatting. Exactly the
// sections relevant to the command are populated.
type Report struct {
	// Validation is set by the validate command.
	Validation *Validation `json:"validation,omitempty"`

	// Previews is set by bundle preview.
	Previews []PreviewRow `json:"previews,omitempty"`

	// History is set by the history command.
	History []HistoryRow `json:"history,omitempty"`

	// Cards is set by card listings.
	Cards []CardRow `json:"cards,omitempty"`

	// Message is a one-line outcome summary.
	Message string `json:"message,omitempty"`

	// Warnings contains any warning messages generated by the operation.
	Warnings []string `json:"warnings,omitempty"`
}

// Formatter is the interface that all output formatters implement.
type Formatter interface {
	// Format writes the formatted report to the buffer.
	Format(w *bytes.Buffer, r *Report) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FormatterFactory)}
}

// Register adds a formatter factory to the registry, replacing any
// existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

func init() {
	Register("json", func() Formatter { return &JSONFormatter{} })
	Register("plain", func() Formatter { return &PlainFormatter{} })
	Register("pretty", func() Formatter { return &PrettyFormatter{} })
}
