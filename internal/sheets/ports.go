package sheets

import (
	"context"
	"errors"
	"fmt"

	"backoffice/internal/core"
)

// Ports for figure sources and sinks.
type (
	// FigureReader lists the figures of one section.
	FigureReader interface {
		ListFigures(ctx context.Context, section core.Section) ([]core.Figure, error)
	}

	// FigureWriter replaces figures by (section, key).
	FigureWriter interface {
		UpsertFigures(ctx context.Context, figs []core.Figure) error
	}

	// SectionReplacer makes whole sections hold exactly the given figures.
	// Stored keys missing from the batch are removed.
	SectionReplacer interface {
		ReplaceSections(ctx context.Context, sections []core.Section, figs []core.Figure) error
	}

	// BulkReader reads every section in one pass.
	BulkReader interface {
		ListAllFigures(ctx context.Context) ([]core.Figure, error)
	}

	// FigureStore is a source that can also be written to.
	FigureStore interface {
		FigureReader
		FigureWriter
		SectionReplacer
	}
)

// ErrForeignFigure is returned by ReplaceSections for a figure whose section
// is not being replaced.
var ErrForeignFigure = errors.New("figure outside the replaced sections")

// CheckReplaceBatch validates sections and figures for ReplaceSections.
func CheckReplaceBatch(sections []core.Section, figs []core.Figure) error {
	replaced := make(map[core.Section]bool, len(sections))
	for _, s := range sections {
		if !s.IsValid() {
			return fmt.Errorf("%w: %q", core.ErrUnknownSection, s)
		}
		replaced[s] = true
	}
	for _, f := range figs {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("figure %q: %w", f.Key, err)
		}
		if !replaced[f.Section] {
			return fmt.Errorf("%w: %s/%s", ErrForeignFigure, f.Section, f.Key)
		}
	}
	return nil
}
