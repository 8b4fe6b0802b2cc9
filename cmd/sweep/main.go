// Command sweep re-verifies every custody chain and checks that the evidence
// registry agrees with the ledger. It is intended to be invoked by an
// external cron job, not as an in-process goroutine.
//
// Exit codes: 0 = clean, 1 = error or tampering found.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/ndep-backend/internal/app"
	"github.com/heartmarshall/ndep-backend/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("open custody engine", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	report, err := a.Verifier.Sweep(ctx)
	if err != nil {
		logger.Error("integrity sweep failed",
			slog.String("error", err.Error()),
			slog.Int("checked", report.Checked),
		)
		a.Close()
		os.Exit(1)
	}

	for _, r := range report.Tampered {
		for _, p := range r.Problems {
			logger.Error("custody chain problem",
				slog.String("evidence_id", r.EvidenceID),
				slog.Int64("sequence", p.Sequence),
				slog.String("kind", string(p.Kind)),
				slog.String("detail", p.Detail),
			)
		}
	}

	if !report.Clean() {
		a.Close()
		os.Exit(1)
	}
}
