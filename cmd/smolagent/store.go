package main

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smolagent/trace"
	"github.com/m-mizutani/smolagent/trace/cs"
)

// traceStore reads and writes traces in a local directory or a Cloud Storage bucket.
type traceStore interface {
	trace.Repository
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, traceID string) (*trace.Trace, error)
}

// openTraceStore opens a store for location, which is either a directory path or gs://bucket/prefix.
func openTraceStore(ctx context.Context, location string) (traceStore, error) {
	if !strings.HasPrefix(location, "gs://") {
		return trace.NewFileRepository(location), nil
	}

	bucket, prefix, err := parseGSURI(location)
	if err != nil {
		return nil, err
	}
	repo, err := cs.New(ctx, bucket, cs.WithPrefix(prefix))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open Cloud Storage trace store", goerr.V("uri", location))
	}
	return repo, nil
}

// parseGSURI splits gs://bucket/prefix. A non-empty prefix always ends with "/".
func parseGSURI(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", goerr.New("URI must start with gs://", goerr.V("uri", uri))
	}

	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", goerr.New("bucket name is empty", goerr.V("uri", uri))
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return bucket, prefix, nil
}
