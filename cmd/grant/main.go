// Command grant gives a user access to a record. It is used to bootstrap
// access for operators or to share a record with an additional user.
//
// Usage:
//
//	grant --record=<record-uuid> --user=<user-uuid>
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lcsavb/autocusto-sub000/internal/app"
	"github.com/lcsavb/autocusto-sub000/internal/config"
	"github.com/lcsavb/autocusto-sub000/pkg/ctxutil"
)

func main() {
	recordArg := flag.String("record", "", "record id to grant access to")
	userArg := flag.String("user", "", "user id receiving access")
	flag.Parse()

	if *recordArg == "" || *userArg == "" {
		fmt.Fprintln(os.Stderr, "Usage: grant --record=<record-uuid> --user=<user-uuid>")
		os.Exit(1)
	}

	recordID, err := uuid.Parse(*recordArg)
	if err != nil {
		log.Fatalf("invalid --record: %v", err)
	}
	userID, err := uuid.Parse(*userArg)
	if err != nil {
		log.Fatalf("invalid --user: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := app.New(ctx, cfg, logger, prometheus.NewRegistry())
	if err != nil {
		logger.Error("startup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	// The CLI acts on behalf of the receiving user.
	ctx = ctxutil.WithUserID(ctx, userID)

	g, err := a.Registry.EnsureGrant(ctx, recordID, userID)
	if err != nil {
		logger.Error("grant failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("Grant %s: user %s -> record %s\n", g.ID, userID, recordID)
}
