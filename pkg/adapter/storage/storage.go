package storage

import (
	"bytes"
	"context"
	"io"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-lab/mnemo/pkg/domain/interfaces"
)

// Client implements ArchiveStorage on Cloud Storage. Archive exports are
// written as objects under the configured bucket.
type Client struct {
	bucketName string
	client     *storage.Client
}

var _ interfaces.ArchiveStorage = &Client{}

// New creates a Cloud Storage backed archive store
func New(ctx context.Context, bucketName string) (*Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &Client{
		bucketName: bucketName,
		client:     client,
	}, nil
}

func (c *Client) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	obj := c.client.Bucket(c.bucketName).Object(key)
	return obj.NewWriter(ctx), nil
}

func (c *Client) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := c.client.Bucket(c.bucketName).Object(key).NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read from storage", goerr.V("key", key))
	}
	return reader, nil
}

// Memory is an in-process ArchiveStorage for tests and local runs
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
}

var _ interfaces.ArchiveStorage = &Memory{}

func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}}
}

type memoryWriter struct {
	buf   bytes.Buffer
	key   string
	store *Memory
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *memoryWriter) Close() error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	w.store.objects[w.key] = w.buf.Bytes()
	return nil
}

func (m *Memory) Put(_ context.Context, key string) (io.WriteCloser, error) {
	return &memoryWriter{key: key, store: m}, nil
}

func (m *Memory) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, goerr.New("object not found", goerr.V("key", key))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Keys lists stored object keys, for test assertions
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
