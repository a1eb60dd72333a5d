package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/solatis/rulekeeper/internal/core/store"
)

// RunLedgerJanitor deletes expired ledgers every interval until ctx is done.
func RunLedgerJanitor(ctx context.Context, st *store.Store, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := st.DeleteExpiredLedgers(ctx, now)
			if err != nil {
				logger.Warn("ledger cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("expired ledgers deleted", "count", n)
			}
		}
	}
}
