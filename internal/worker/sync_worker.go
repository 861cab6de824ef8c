package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"backoffice/internal/amqp"
	"backoffice/internal/core"
	"backoffice/internal/sheets"
)

// maxConcurrentReads bounds parallel reads against the upstream sheet.
const maxConcurrentReads = 3

// Notifier announces finished syncs, typically to the web servers.
type Notifier interface {
	PublishSynced(ctx context.Context, msg *amqp.FigureSyncedMessage) error
}

// SyncWorker copies figures from an upstream reader into the local store.
type SyncWorker struct {
	source   sheets.FigureReader
	store    sheets.SectionReplacer
	notifier Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	lastSync time.Time
}

func NewSyncWorker(source sheets.FigureReader, store sheets.SectionReplacer, logger *slog.Logger) *SyncWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncWorker{source: source, store: store, logger: logger.With("component", "worker")}
}

// SetNotifier makes every successful sync publish a completion message.
func (w *SyncWorker) SetNotifier(n Notifier) {
	w.notifier = n
}

// SyncSections reads the given sections and makes the store hold exactly
// what upstream has for them. No sections means all of them. Nothing is
// written if any read fails.
func (w *SyncWorker) SyncSections(ctx context.Context, sections []core.Section) (int, error) {
	return w.syncSections(ctx, sections, uuid.Nil)
}

func (w *SyncWorker) syncSections(ctx context.Context, sections []core.Section, refreshID uuid.UUID) (int, error) {
	if len(sections) == 0 {
		sections = core.Sections
	}
	for _, s := range sections {
		if !s.IsValid() {
			return 0, fmt.Errorf("%w: %q", core.ErrUnknownSection, s)
		}
	}

	all, err := w.read(ctx, sections)
	if err != nil {
		return 0, err
	}
	if err := w.store.ReplaceSections(ctx, sections, all); err != nil {
		return 0, fmt.Errorf("store figures: %w", err)
	}

	w.mu.Lock()
	w.lastSync = time.Now()
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Figures synced", "sections", len(sections), "figure_count", len(all))
	w.notify(ctx, refreshID, sections, len(all))
	return len(all), nil
}

// read fetches sections from the source, in one request when the source
// can return every section at once.
func (w *SyncWorker) read(ctx context.Context, sections []core.Section) ([]core.Figure, error) {
	if bulk, ok := w.source.(sheets.BulkReader); ok {
		figs, err := bulk.ListAllFigures(ctx)
		if err != nil {
			return nil, fmt.Errorf("read figures: %w", err)
		}
		wanted := make(map[core.Section]bool, len(sections))
		for _, s := range sections {
			wanted[s] = true
		}
		out := make([]core.Figure, 0, len(figs))
		for _, f := range figs {
			if wanted[f.Section] {
				out = append(out, f)
			}
		}
		return out, nil
	}

	results := make([][]core.Figure, len(sections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)
	for i, s := range sections {
		g.Go(func() error {
			figs, err := w.source.ListFigures(gctx, s)
			if err != nil {
				return fmt.Errorf("read section %s: %w", s, err)
			}
			results[i] = figs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var all []core.Figure
	for _, figs := range results {
		all = append(all, figs...)
	}
	return all, nil
}

// notify publishes a completion message. A failure is logged only: the
// figures are stored and servers still pick them up when their cache expires.
func (w *SyncWorker) notify(ctx context.Context, refreshID uuid.UUID, sections []core.Section, figures int) {
	if w.notifier == nil {
		return
	}
	msg := amqp.NewFigureSyncedMessage(refreshID, sections, figures)
	if err := w.notifier.PublishSynced(ctx, msg); err != nil {
		w.logger.WarnContext(ctx, "Failed to announce sync", "error", err, "message_id", msg.ID.String())
	}
}

// HandleRefresh processes a refresh message from AMQP.
func (w *SyncWorker) HandleRefresh(ctx context.Context, msg *amqp.FigureRefreshMessage) error {
	w.logger.InfoContext(ctx, "Processing refresh message",
		"message_id", msg.ID.String(),
		"sections", len(msg.Sections),
		"requested_at", msg.RequestedAt)
	_, err := w.syncSections(ctx, msg.Sections, msg.ID)
	return err
}

// Run syncs every section once and then on each tick until ctx is done.
// Failed passes are logged and retried on the next tick.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	w.syncAll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.syncAll(ctx)
		}
	}
}

func (w *SyncWorker) syncAll(ctx context.Context) {
	if _, err := w.SyncSections(ctx, nil); err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "Periodic sync failed", "error", err)
	}
}

// LastSync reports when the last successful pass finished.
func (w *SyncWorker) LastSync() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSync
}
