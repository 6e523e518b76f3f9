package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/your-org/framepro/internal/identity"
	"github.com/your-org/framepro/internal/registry"
	"github.com/your-org/framepro/pkg/storage/objectstore"
)

const tracerName = "github.com/your-org/framepro/internal/ingestion"

// Step names a stage of the pipeline.
type Step string

const (
	StepRequest          Step = "request"
	StepResolveIdentity  Step = "resolve_identity"
	StepValidate         Step = "validate"
	StepFetch            Step = "fetch"
	StepStore            Step = "store"
	StepRegisterProcess  Step = "register_process"
	StepRegisterMetadata Step = "register_metadata"
	StepDispatch         Step = "dispatch"
)

type LinkValidator interface {
	Validate(ctx context.Context, ref string) error
}

type VideoFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

type ProcessRegistry interface {
	CreateProcess(ctx context.Context, processID string, createdAt time.Time) error
}

type MetadataRegistry interface {
	CreateMetadata(ctx context.Context, rec registry.MetadataRecord) error
}

type JobDispatcher interface {
	Dispatch(ctx context.Context, processID string, msg DispatchMessage) error
}

// Options selects the pipeline variant.
type Options struct {
	KeyStrategy      KeyStrategy
	RecordProcess    bool
	Dispatch         bool
	AcceptCallerID   bool
	DefaultFrameRate int
}

// Service sequences validation, download, storage, registration and dispatch
// for one request at a time. It holds no per-request state, so one Service
// serves concurrent requests.
type Service struct {
	validator  LinkValidator
	fetcher    VideoFetcher
	store      objectstore.Client
	processes  ProcessRegistry
	metadata   MetadataRegistry
	dispatcher JobDispatcher
	identity   identity.Resolver
	logger     *zap.Logger
	metrics    *Metrics
	tracer     trace.Tracer
	validate   *validator.Validate
	opts       Options
	now        func() time.Time
	newID      func() string
}

type Params struct {
	Validator  LinkValidator
	Fetcher    VideoFetcher
	Store      objectstore.Client
	Processes  ProcessRegistry
	Metadata   MetadataRegistry
	Dispatcher JobDispatcher
	Identity   identity.Resolver
	Logger     *zap.Logger
	Metrics    *Metrics
	Options    Options

	// Clock and ID source, overridable in tests.
	Now   func() time.Time
	NewID func() string
}

// NewService constructs an ingestion Service. Collaborators for disabled
// steps may be nil.
func NewService(p Params) (*Service, error) {
	if p.Validator == nil || p.Fetcher == nil || p.Store == nil {
		return nil, errors.New("validator, fetcher and store are required")
	}
	if p.Options.RecordProcess && (p.Processes == nil || p.Metadata == nil) {
		return nil, errors.New("process and metadata registries are required when records are enabled")
	}
	if p.Options.Dispatch && p.Dispatcher == nil {
		return nil, errors.New("dispatcher is required when dispatch is enabled")
	}
	if p.Options.KeyStrategy == "" {
		p.Options.KeyStrategy = KeyFlat
	}
	if p.Options.DefaultFrameRate <= 0 {
		p.Options.DefaultFrameRate = 1
	}
	if p.Identity == nil {
		p.Identity = identity.Passthrough{}
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.NewID == nil {
		p.NewID = uuid.NewString
	}

	return &Service{
		validator:  p.Validator,
		fetcher:    p.Fetcher,
		store:      p.Store,
		processes:  p.Processes,
		metadata:   p.Metadata,
		dispatcher: p.Dispatcher,
		identity:   p.Identity,
		logger:     p.Logger,
		metrics:    p.Metrics,
		tracer:     otel.Tracer(tracerName),
		validate:   newValidate(),
		opts:       p.Options,
		now:        p.Now,
		newID:      p.NewID,
	}, nil
}

// attempt tracks where a single ingestion got to.
type attempt struct {
	step      Step
	processID string
}

// Ingest runs the pipeline for req. It always returns an envelope: 200 with a
// SuccessBody, or 400 with an ErrorBody naming the first failure. Side effects
// of steps that completed before a failure are left in place.
func (s *Service) Ingest(ctx context.Context, req Request) (resp Response) {
	ctx, span := s.tracer.Start(ctx, "ingestion.ingest")
	defer span.End()

	at := &attempt{step: StepRequest}
	defer func() {
		if r := recover(); r != nil {
			err := &Error{Kind: KindInternal, Msg: fmt.Sprintf("unexpected failure during %s: %v", at.step, r)}
			resp = s.fail(span, at, err)
		}
	}()

	result, err := s.run(ctx, req, at)
	if err != nil {
		return s.fail(span, at, err)
	}

	s.metrics.recordOutcome(at.step, nil)
	span.SetAttributes(
		attribute.String("ingestion.process_id", result.ProcessID),
		attribute.String("ingestion.storage_key", result.StorageKey),
	)
	s.logger.Info("video ingested",
		zap.String("process_id", result.ProcessID),
		zap.String("storage_key", result.StorageKey),
		zap.String("username", result.Username),
		zap.Int("frame_rate", result.FrameRate))

	return Response{StatusCode: http.StatusOK, Body: result}
}

func (s *Service) run(ctx context.Context, req Request, at *attempt) (*SuccessBody, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, wrap(KindInvalidRequest, "invalid ingestion request", describeValidation(err))
	}

	var who identity.Owner
	err := s.step(ctx, at, StepResolveIdentity, func(ctx context.Context) error {
		resolved, err := s.identity.Resolve(ctx, identity.Claim{
			Username: req.Username,
			Email:    req.Email,
			Token:    req.Token,
		})
		if err != nil {
			return wrap(KindIdentityUnresolved, "failed to resolve requester identity", err)
		}
		if err := s.validate.Struct(owner{Username: resolved.Username, Email: resolved.Email}); err != nil {
			return wrap(KindIdentityUnresolved, "invalid requester identity", describeValidation(err))
		}
		who = resolved
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.step(ctx, at, StepValidate, func(ctx context.Context) error {
		return ensureKind(s.validator.Validate(ctx, req.VideoLink), KindInvalidLink, "failed to validate the video link")
	})
	if err != nil {
		return nil, err
	}

	var content []byte
	err = s.step(ctx, at, StepFetch, func(ctx context.Context) error {
		body, err := s.fetcher.Fetch(ctx, req.VideoLink)
		content = body
		return ensureKind(err, KindDownloadFailed, "failed to download the video")
	})
	if err != nil {
		return nil, err
	}

	at.processID = s.processID(req)
	frameRate := req.FrameRate
	if frameRate <= 0 {
		frameRate = s.opts.DefaultFrameRate
	}
	storageKey := s.opts.KeyStrategy.StorageKey(at.processID, who.Username)

	err = s.step(ctx, at, StepStore, func(ctx context.Context) error {
		err := s.store.Put(ctx, storageKey, bytes.NewReader(content), int64(len(content)), objectstore.PutOptions{
			ContentType: VideoContentType,
			Metadata: map[string]string{
				"process-id": at.processID,
				"owner":      who.Username,
			},
		})
		if err != nil {
			return wrap(KindStorageWriteFailed, "failed to upload video to storage", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.opts.RecordProcess {
		createdAt := s.now().UTC()

		err = s.step(ctx, at, StepRegisterProcess, func(ctx context.Context) error {
			if err := s.processes.CreateProcess(ctx, at.processID, createdAt); err != nil {
				return wrap(KindRegistryWriteFailed, "failed to create process record", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		err = s.step(ctx, at, StepRegisterMetadata, func(ctx context.Context) error {
			rec := registry.MetadataRecord{
				MetadataID: s.newID(),
				ProcessID:  at.processID,
				OwnerEmail: who.Email,
				OwnerName:  who.Username,
				StorageKey: storageKey,
				FrameRate:  frameRate,
				CreatedAt:  createdAt,
			}
			if err := s.metadata.CreateMetadata(ctx, rec); err != nil {
				return wrap(KindRegistryWriteFailed, "failed to create metadata record", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	message := "Video uploaded successfully"
	if s.opts.Dispatch {
		err = s.step(ctx, at, StepDispatch, func(ctx context.Context) error {
			msg := DispatchMessage{
				ObjectKey: storageKey,
				UserName:  who.Username,
				ToAddress: who.Email,
				FrameRate: frameRate,
			}
			if err := s.dispatcher.Dispatch(ctx, at.processID, msg); err != nil {
				return wrap(KindDispatchFailed, "failed to dispatch processing job", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		message = "Video uploaded and queued for processing"
	}

	return &SuccessBody{
		ProcessID:  at.processID,
		VideoID:    at.processID,
		Username:   who.Username,
		StorageKey: storageKey,
		VideoLink:  req.VideoLink,
		Email:      who.Email,
		FrameRate:  frameRate,
		Message:    message,
	}, nil
}

func (s *Service) processID(req Request) string {
	if s.opts.AcceptCallerID && req.ProcessID != "" {
		return req.ProcessID
	}
	return s.newID()
}

// step runs fn as the named pipeline step inside its own span.
func (s *Service) step(ctx context.Context, at *attempt, step Step, fn func(context.Context) error) error {
	at.step = step
	ctx, span := s.tracer.Start(ctx, "ingestion."+string(step))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	s.metrics.observeStep(step, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
		return err
	}
	s.logger.Debug("ingestion step complete",
		zap.String("step", string(step)),
		zap.String("process_id", at.processID),
		zap.Duration("took", time.Since(start)))
	return nil
}

func (s *Service) fail(span trace.Span, at *attempt, err error) Response {
	kind := KindOf(err)
	s.metrics.recordOutcome(at.step, err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(kind))

	fields := []zap.Field{
		zap.String("step", string(at.step)),
		zap.String("kind", string(kind)),
		zap.String("process_id", at.processID),
		zap.Error(err),
	}
	if kind.Infrastructure() {
		s.logger.Error("ingestion failed", fields...)
	} else {
		s.logger.Warn("ingestion rejected", fields...)
	}

	return Response{
		StatusCode: http.StatusBadRequest,
		Body:       ErrorBody{Error: err.Error()},
	}
}

// Close releases the dispatcher and the object store.
func (s *Service) Close(ctx context.Context) error {
	var err error
	if c, ok := s.dispatcher.(interface{ Close(context.Context) error }); ok {
		err = c.Close(ctx)
	}
	return errors.Join(err, s.store.Close())
}

// ensureKind passes *Error values through and tags anything else with kind.
func ensureKind(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return wrap(kind, msg, err)
}
