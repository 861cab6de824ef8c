package backend

import (
	"context"

	"backoffice/internal/core"
	"backoffice/internal/sheets"
)

// Backend is the figure source the HTTP server reads from.
type Backend interface {
	sheets.FigureReader
}

// Pinger is implemented by backends that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string

	GoogleSpreadsheetID string
	FiguresSheetName    string

	// Memory backend seed; a missing file means built-in demo figures.
	MemorySeedFile string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Probe checks that b can serve reads: Ping when supported, otherwise a
// budgeting read.
func Probe(ctx context.Context, b Backend) error {
	if p, ok := b.(Pinger); ok {
		return p.Ping(ctx)
	}
	_, err := b.ListFigures(ctx, core.SectionBudgeting)
	return err
}
