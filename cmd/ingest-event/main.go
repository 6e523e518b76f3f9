// Command ingest-event runs the ingestion pipeline once for a single event
// read from a file or stdin and prints the response envelope to stdout. It
// exits non-zero when the envelope reports a failure.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/your-org/framepro/internal/bootstrap"
	"github.com/your-org/framepro/internal/ingestion"
	"github.com/your-org/framepro/pkg/config"
	"github.com/your-org/framepro/pkg/logger"
)

func main() {
	eventPath := flag.String("event", "-", "path to the event JSON, or - for stdin")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logr, err := logger.New(cfg.App.LogLevel, cfg.App.Name, cfg.App.Environment)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	event, err := readEvent(*eventPath)
	if err != nil {
		writeEnvelope(os.Stdout, ingestion.Response{
			StatusCode: http.StatusBadRequest,
			Body:       ingestion.ErrorBody{Error: err.Error()},
		})
		os.Exit(1)
	}

	pipeline, err := bootstrap.Build(ctx, cfg, logr, nil)
	if err != nil {
		logr.Fatal("init ingestion pipeline", zap.Error(err))
	}

	resp := pipeline.Service.Ingest(ctx, event.Request())
	if err := pipeline.Close(context.Background()); err != nil {
		logr.Warn("pipeline shutdown failed", zap.Error(err))
	}

	writeEnvelope(os.Stdout, resp)
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func readEvent(path string) (ingestion.Event, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return ingestion.Event{}, fmt.Errorf("open event: %w", err)
		}
		defer f.Close()
		r = f
	}

	var event ingestion.Event
	if err := json.NewDecoder(r).Decode(&event); err != nil {
		return ingestion.Event{}, fmt.Errorf("invalid event payload: %w", err)
	}
	return event, nil
}

func writeEnvelope(w io.Writer, resp ingestion.Response) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		log.Printf("encode response: %v", err)
	}
}
