// Package cs provides a trace.Repository that stores traces in Google Cloud Storage.
package cs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smolagent/trace"
	"google.golang.org/api/iterator"
)

// Repository saves each trace as {prefix}{trace_id}.json in a bucket.
type Repository struct {
	bucket string
	prefix string
	client *storage.Client
}

// Option configures a Repository.
type Option func(*Repository)

// WithPrefix sets the object name prefix, e.g. "traces/".
func WithPrefix(prefix string) Option {
	return func(r *Repository) {
		r.prefix = prefix
	}
}

// WithClient sets an existing Cloud Storage client.
func WithClient(client *storage.Client) Option {
	return func(r *Repository) {
		r.client = client
	}
}

// New creates a Repository for the bucket. A client with default credentials is created unless WithClient is given.
func New(ctx context.Context, bucket string, opts ...Option) (*Repository, error) {
	if bucket == "" {
		return nil, goerr.New("bucket is required")
	}

	r := &Repository{bucket: bucket}
	for _, opt := range opts {
		opt(r)
	}

	if r.client == nil {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Cloud Storage client")
		}
		r.client = client
	}
	return r, nil
}

func (r *Repository) objectName(traceID string) string {
	return r.prefix + traceID + ".json"
}

// Save implements trace.Repository.
func (r *Repository) Save(ctx context.Context, t *trace.Trace) error {
	data, err := json.Marshal(t)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal trace")
	}

	name := r.objectName(t.TraceID)
	w := r.client.Bucket(r.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write trace object", goerr.V("bucket", r.bucket), goerr.V("object", name))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to close trace object", goerr.V("bucket", r.bucket), goerr.V("object", name))
	}
	return nil
}

// Load reads the trace saved under traceID.
func (r *Repository) Load(ctx context.Context, traceID string) (*trace.Trace, error) {
	name := r.objectName(traceID)
	reader, err := r.client.Bucket(r.bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open trace object", goerr.V("bucket", r.bucket), goerr.V("object", name))
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read trace object", goerr.V("bucket", r.bucket), goerr.V("object", name))
	}

	var t trace.Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal trace", goerr.V("object", name))
	}
	return &t, nil
}

// List returns the IDs of the saved traces.
func (r *Repository) List(ctx context.Context) ([]string, error) {
	it := r.client.Bucket(r.bucket).Objects(ctx, &storage.Query{Prefix: r.prefix})

	var ids []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list trace objects", goerr.V("bucket", r.bucket), goerr.V("prefix", r.prefix))
		}

		name := strings.TrimPrefix(attrs.Name, r.prefix)
		if !strings.HasSuffix(name, ".json") || strings.Contains(name, "/") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(path.Base(name), ".json"))
	}
	return ids, nil
}
