// Package worker keeps per-month statement digests up to date from ledger
// events, with a periodic full rebuild as a backstop for missed messages.
package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"minibudget/internal/amqp"
	"minibudget/internal/core"
	applog "minibudget/internal/log"
)

// LedgerLoader reads the persisted ledger. *storage.Gateway implements it.
type LedgerLoader interface {
	Load(ctx context.Context) ([]core.Movement, error)
}

// Digest is the latest statement computed for one month.
type Digest struct {
	Statement core.Statement `json:"statement"`
	// Epoch and Revision identify the event that produced the digest.
	// Revisions are only comparable within one epoch.
	Epoch    string    `json:"epoch,omitempty"`
	Revision uint64    `json:"revision"`
	BuiltAt  time.Time `json:"built_at"`
}

// newerThan reports whether d was built from a later event of msg's epoch.
func (d Digest) newerThan(msg *amqp.LedgerEventMessage) bool {
	return msg.SameEpoch(d.Epoch) && d.Revision > msg.Revision
}

type DigestWorker struct {
	loader LedgerLoader
	logger *applog.Logger
	clock  func() time.Time

	mu      sync.RWMutex
	digests map[string]Digest
}

func NewDigestWorker(loader LedgerLoader, logger *applog.Logger) *DigestWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DigestWorker{
		loader:  loader,
		logger:  logger.WithComponent(applog.ComponentWorker),
		clock:   time.Now,
		digests: make(map[string]Digest),
	}
}

// HandleLedgerEvent rebuilds the digests of the months the event touched,
// including the month an update moved a movement out of. Events older than
// the stored digest of the same epoch are ignored. A load failure is
// returned so the message is redelivered.
func (w *DigestWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	months := msg.Months()
	if len(months) == 0 {
		w.logger.WarnContext(ctx, "Ledger event without month, skipping",
			applog.FieldMovementID, msg.MovementID,
			applog.FieldRevision, msg.Revision)
		return nil
	}

	fresh := make([]string, 0, len(months))
	w.mu.RLock()
	for _, month := range months {
		if prev, ok := w.digests[month]; ok && prev.newerThan(msg) {
			continue
		}
		fresh = append(fresh, month)
	}
	w.mu.RUnlock()
	if len(fresh) == 0 {
		w.logger.DebugContext(ctx, "Stale ledger event ignored",
			applog.FieldMonth, msg.Month,
			applog.FieldRevision, msg.Revision)
		return nil
	}

	items, err := w.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	now := w.clock()
	for _, month := range fresh {
		st := core.BuildStatement(items, month)
		w.store(msg, Digest{Statement: st, Epoch: msg.Epoch, Revision: msg.Revision, BuiltAt: now})

		w.logger.InfoContext(ctx, "Month digest updated",
			applog.FieldOperation, applog.OpDigest,
			"event", string(msg.Op),
			applog.FieldMovementID, msg.MovementID,
			applog.FieldMonth, month,
			applog.FieldRevision, msg.Revision,
			applog.FieldCount, st.Count,
			"net", core.FormatCurrency(st.Net))
	}
	return nil
}

// RebuildAll recomputes the digest of every month present in the ledger
// and of every month already tracked, which clears months whose last
// movement was removed. It returns the number of digests written.
func (w *DigestWorker) RebuildAll(ctx context.Context) (int, error) {
	items, err := w.loader.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}

	months := make(map[string]struct{})
	for _, m := range items {
		months[m.Date.MonthKey()] = struct{}{}
	}
	w.mu.RLock()
	for k := range w.digests {
		months[k] = struct{}{}
	}
	w.mu.RUnlock()

	now := w.clock()
	w.mu.Lock()
	for k := range months {
		prev := w.digests[k]
		w.digests[k] = Digest{Statement: core.BuildStatement(items, k), Epoch: prev.Epoch, Revision: prev.Revision, BuiltAt: now}
	}
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Month digests rebuilt",
		applog.FieldOperation, applog.OpDigest,
		applog.FieldCount, len(months),
		"movements", len(items))
	return len(months), nil
}

// Digest returns the digest for a YYYY-MM month key.
func (w *DigestWorker) Digest(month string) (Digest, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	d, ok := w.digests[month]
	return d, ok
}

// Digests returns all digests, newest month first.
func (w *DigestWorker) Digests() []Digest {
	w.mu.RLock()
	out := make([]Digest, 0, len(w.digests))
	for _, d := range w.digests {
		out = append(out, d)
	}
	w.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Statement.MonthKey > out[j].Statement.MonthKey
	})
	return out
}

// Run rebuilds all digests every interval until ctx is done.
func (w *DigestWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RebuildAll(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic digest rebuild failed",
					applog.FieldErrorType, applog.ErrorTypeStorage,
					applog.FieldError, err)
			}
		}
	}
}

func (w *DigestWorker) store(msg *amqp.LedgerEventMessage, d Digest) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if cur, ok := w.digests[d.Statement.MonthKey]; ok && cur.newerThan(msg) {
		return
	}
	w.digests[d.Statement.MonthKey] = d
}
