package ingestion

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/your-org/framepro/internal/registry"
	"github.com/your-org/framepro/pkg/storage/objectstore"
)

type mockValidator struct{ mock.Mock }

func (m *mockValidator) Validate(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

type mockFetcher struct{ mock.Mock }

func (m *mockFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	args := m.Called(ctx, ref)
	body, _ := args.Get(0).([]byte)
	return body, args.Error(1)
}

// mockStore drains the reader so expectations can match on the bytes written.
type mockStore struct{ mock.Mock }

func (m *mockStore) Put(ctx context.Context, key string, reader io.Reader, size int64, opts objectstore.PutOptions) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	return m.Called(ctx, key, data, size, opts).Error(0)
}

func (m *mockStore) Ping(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *mockStore) Bucket() string               { return "video-frame-pro" }
func (m *mockStore) Close() error                 { return nil }

type mockProcesses struct{ mock.Mock }

func (m *mockProcesses) CreateProcess(ctx context.Context, processID string, createdAt time.Time) error {
	return m.Called(ctx, processID, createdAt).Error(0)
}

type mockMetadata struct{ mock.Mock }

func (m *mockMetadata) CreateMetadata(ctx context.Context, rec registry.MetadataRecord) error {
	return m.Called(ctx, rec).Error(0)
}

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) Dispatch(ctx context.Context, processID string, msg DispatchMessage) error {
	return m.Called(ctx, processID, msg).Error(0)
}
