package cart

import (
	"context"
	"errors"

	"storefront/internal/domain"
	"storefront/internal/gateway"

	"go.uber.org/zap"
)

type LineOutcome int

const (
	LineAdded LineOutcome = iota
	LineFailed
	LineSkipped
)

func (o LineOutcome) String() string {
	switch o {
	case LineAdded:
		return "added"
	case LineFailed:
		return "failed"
	case LineSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

func (o LineOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// LineResult is the outcome of re-adding one guest line to the remote cart.
type LineResult struct {
	ProductID domain.ID   `json:"productId"`
	VariantID domain.ID   `json:"variantId,omitempty"`
	Quantity  int         `json:"quantity"`
	Outcome   LineOutcome `json:"outcome"`
	Reason    string      `json:"reason,omitempty"`
}

// MergeReport lists one result per guest line, in insertion order.
type MergeReport struct {
	Lines []LineResult `json:"lines"`
	// Error is set when the merge as a whole failed.
	Error string `json:"error,omitempty"`
}

func (r MergeReport) count(o LineOutcome) int {
	n := 0
	for _, l := range r.Lines {
		if l.Outcome == o {
			n++
		}
	}
	return n
}

func (r MergeReport) Added() int   { return r.count(LineAdded) }
func (r MergeReport) Failed() int  { return r.count(LineFailed) }
func (r MergeReport) Skipped() int { return r.count(LineSkipped) }

// Partial reports whether some guest lines did not reach the remote cart.
func (r MergeReport) Partial() bool {
	return r.Failed() > 0 || r.Skipped() > 0
}

// MergeOnLogin folds the guest cart into the remote cart of the identity
// that just logged in. The remote cart is cleared first and every guest line
// is re-added in insertion order; the first failing line stops the remaining
// additions. The local cart is then cleared and the remote cart refetched.
// Only a failed initial clear or a failed final refetch is a merge failure.
func (m *Manager) MergeOnLogin(ctx context.Context) (MergeReport, error) {
	m.mu.Lock()
	if m.state == StateMerging {
		m.mu.Unlock()
		return MergeReport{}, mergeError(ErrCartBusy)
	}
	m.epoch++
	epoch := m.epoch
	m.state = StateMerging
	m.mode = nil
	fallback, fallbackLoaded := cloneLines(m.lines), m.loaded
	m.mu.Unlock()

	var (
		mergeErr  error
		keepLocal bool
	)
	snapshot, err := m.local.Load(ctx)
	if err != nil {
		switch {
		case isCorrupt(err):
			m.logger.Warn("discarding unreadable local cart before merge", zap.Error(err))
			snapshot = nil
		case fallbackLoaded:
			m.logger.Warn("load local cart for merge, using snapshot", zap.Error(err))
			snapshot = fallback
		default:
			// The guest lines were never read, so the slot is kept.
			m.logger.Error("load local cart for merge", zap.Error(err))
			mergeErr = err
			keepLocal = true
			snapshot = nil
		}
	}

	report := MergeReport{Lines: make([]LineResult, 0, len(snapshot))}
	if len(snapshot) > 0 {
		if err := m.remote.Clear(ctx); err != nil {
			m.logger.Error("clear remote cart before merge", zap.Error(err))
			mergeErr = err
		}
		aborted := mergeErr != nil
		for _, line := range snapshot {
			res := LineResult{ProductID: line.ProductID, VariantID: line.VariantID, Quantity: line.Quantity}
			if aborted {
				res.Outcome = LineSkipped
				report.Lines = append(report.Lines, res)
				continue
			}
			err := m.remote.Add(ctx, gateway.AddItem{ProductID: line.ProductID, VariantID: line.VariantID, Quantity: line.Quantity})
			if err != nil {
				m.logger.Warn("merge line",
					zap.String("line_key", line.Key().String()),
					zap.Error(err),
				)
				res.Outcome = LineFailed
				res.Reason = reason(err)
				aborted = true
			}
			report.Lines = append(report.Lines, res)
		}
	}

	if !keepLocal {
		if err := m.local.Clear(ctx); err != nil {
			m.logger.Error("clear local cart after merge", zap.Error(err))
		}
	}

	lines, fetchErr := m.remote.Fetch(ctx)
	if fetchErr != nil {
		m.logger.Error("refetch remote cart after merge", zap.Error(fetchErr))
		if mergeErr == nil {
			mergeErr = fetchErr
		}
	}

	var result error
	if mergeErr != nil {
		result = mergeError(mergeErr)
		report.Error = result.Error()
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return report, mergeError(ErrIdentityChanged)
	}
	m.state = StateAuthenticated
	m.mode = &remoteMode{m: m, epoch: epoch}
	if fetchErr == nil {
		m.lines = lines
		m.loaded = true
	} else {
		m.lines = nil
		m.loaded = false
	}
	m.lastMerge = &report
	m.mu.Unlock()

	m.logger.Info("cart merged",
		zap.Int("added", report.Added()),
		zap.Int("failed", report.Failed()),
		zap.Int("skipped", report.Skipped()),
	)
	return report, result
}

func reason(err error) string {
	if msg := gateway.MessageOf(err); msg != "" {
		return msg
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return err.Error()
}
