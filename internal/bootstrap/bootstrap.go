// Package bootstrap builds the ingestion pipeline and its collaborators from
// configuration. Both the HTTP server and the one-shot event runner use it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/your-org/framepro/internal/identity"
	"github.com/your-org/framepro/internal/ingestion"
	"github.com/your-org/framepro/internal/registry"
	"github.com/your-org/framepro/pkg/config"
	"github.com/your-org/framepro/pkg/database"
	"github.com/your-org/framepro/pkg/kafka"
	"github.com/your-org/framepro/pkg/rabbitmq"
	"github.com/your-org/framepro/pkg/storage/objectstore"
)

// Pipeline is a fully wired ingestion service plus what is needed to probe
// and shut it down.
type Pipeline struct {
	Service  *ingestion.Service
	Registry *registry.Store
	Checks   map[string]ingestion.Check

	db *sqlx.DB
}

// Build connects every collaborator the configured variant needs. Anything
// opened before a failure is closed again.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (_ *Pipeline, err error) {
	opts, err := Options(cfg.Ingestion)
	if err != nil {
		return nil, err
	}

	resolver, err := Resolver(cfg.Identity)
	if err != nil {
		return nil, err
	}

	store, err := objectstore.New(objectstore.Config{
		Provider:  cfg.Storage.Provider,
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store: %w", err)
	}

	p := &Pipeline{Checks: map[string]ingestion.Check{"storage": store.Ping}}
	var publisher ingestion.Publisher
	defer func() {
		if err != nil {
			store.Close()
			if publisher != nil {
				publisher.Close(context.Background())
			}
			if p.db != nil {
				p.db.Close()
			}
		}
	}()

	params := ingestion.Params{
		Store:    store,
		Identity: resolver,
		Logger:   logger.Named("ingestion"),
		Options:  opts,
	}
	if reg != nil {
		params.Metrics = ingestion.NewMetrics(reg)
	}

	client := &http.Client{Timeout: cfg.Ingestion.FetchTimeout}
	params.Validator = ingestion.NewHTTPValidator(client, cfg.Ingestion.MaxSourceBytes)
	params.Fetcher = ingestion.NewHTTPFetcher(client)

	if opts.RecordProcess {
		p.db, err = database.Connect(ctx, database.Config{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			Name:         cfg.Database.Name,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			ConnAttempts: cfg.Database.ConnAttempts,
			ConnBackoff:  cfg.Database.ConnBackoff,
			Migrate:      cfg.Database.Migrate,
		}, logger.Named("database"))
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		p.Registry = registry.NewStore(p.db)
		p.Checks["database"] = p.Registry.Ping
		params.Processes = p.Registry
		params.Metadata = p.Registry
	}

	if opts.Dispatch {
		publisher, err = Publisher(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("init job publisher: %w", err)
		}
		params.Dispatcher = ingestion.NewQueueDispatcher(publisher)
	}

	p.Service, err = ingestion.NewService(params)
	if err != nil {
		return nil, err
	}

	logger.Info("ingestion pipeline ready",
		zap.String("bucket", store.Bucket()),
		zap.String("key_strategy", string(opts.KeyStrategy)),
		zap.Bool("record_process", opts.RecordProcess),
		zap.Bool("dispatch", opts.Dispatch),
		zap.String("queue_backend", cfg.Queue.Backend),
		zap.String("identity_mode", cfg.Identity.Mode))
	return p, nil
}

// Close shuts the service's collaborators and the database pool.
func (p *Pipeline) Close(ctx context.Context) error {
	err := p.Service.Close(ctx)
	if p.db != nil {
		err = errors.Join(err, p.db.Close())
	}
	return err
}

// Options translates configuration into pipeline options.
func Options(cfg config.IngestionConfig) (ingestion.Options, error) {
	strategy, err := ingestion.ParseKeyStrategy(cfg.KeyStrategy)
	if err != nil {
		return ingestion.Options{}, err
	}
	if cfg.DefaultFrameRate <= 0 {
		return ingestion.Options{}, fmt.Errorf("default frame rate must be positive, got %d", cfg.DefaultFrameRate)
	}
	return ingestion.Options{
		KeyStrategy:      strategy,
		RecordProcess:    cfg.RecordProcess,
		Dispatch:         cfg.Dispatch,
		AcceptCallerID:   cfg.AcceptCallerID,
		DefaultFrameRate: cfg.DefaultFrameRate,
	}, nil
}

// Resolver picks the identity resolver for the configured mode.
func Resolver(cfg config.IdentityConfig) (identity.Resolver, error) {
	switch strings.ToLower(cfg.Mode) {
	case "", "direct":
		return identity.Passthrough{}, nil
	case "jwt":
		return identity.NewJWT([]byte(cfg.JWTSecret), cfg.JWTIssuer)
	default:
		return nil, fmt.Errorf("unsupported identity mode: %s", cfg.Mode)
	}
}

// Publisher connects the configured queue backend.
func Publisher(cfg *config.Config, logger *zap.Logger) (ingestion.Publisher, error) {
	switch strings.ToLower(cfg.Queue.Backend) {
	case "kafka":
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.JobTopic,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			Compression:  kafka.CompressionFromString(cfg.Kafka.CompressionCodec),
			RequiredAcks: kafkago.RequireAll,
			MaxAttempts:  cfg.Kafka.Retries,
			Logger:       logger.Named("kafka"),
		})
		if err != nil {
			return nil, err
		}
		return producer, nil
	case "rabbitmq":
		publisher, err := rabbitmq.NewPublisher(rabbitmq.PublisherConfig{
			URL:   cfg.RabbitMQ.URL,
			Queue: cfg.RabbitMQ.Queue,
		})
		if err != nil {
			return nil, err
		}
		return publisher, nil
	default:
		return nil, fmt.Errorf("unsupported queue backend: %s", cfg.Queue.Backend)
	}
}
