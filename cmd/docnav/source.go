package main

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/fwojciec/docnav"
	"github.com/fwojciec/docnav/decompress"
	"github.com/fwojciec/docnav/doxygen"
	"github.com/fwojciec/docnav/fs"
	docnavhttp "github.com/fwojciec/docnav/http"
	"github.com/fwojciec/docnav/minio"
	"github.com/fwojciec/docnav/qhp"
	docslog "github.com/fwojciec/docnav/slog"
)

// Sources bundles what commands read from a documentation set.
type Sources struct {
	Fetcher docnav.Fetcher
	Nav     docnav.NavSource
	Shards  docnav.ShardSource

	// Keys lists every shard key the documentation set provides.
	Keys func(ctx context.Context) ([]string, error)

	closers []io.Closer
}

// Close releases the underlying fetcher.
func (s *Sources) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openFetcher builds the raw fetcher for the configured source.
func openFetcher(cfg *Config) (docnav.Fetcher, io.Closer, error) {
	switch cfg.Source {
	case SourceHTTP:
		opts := []docnavhttp.Option{
			docnavhttp.WithTimeout(cfg.Timeout),
			docnavhttp.WithRateLimit(cfg.Rate),
		}
		if cfg.Retry {
			opts = append(opts, docnavhttp.WithRetryDelays(docnavhttp.DefaultRetryDelays()...))
		}
		f, err := docnavhttp.NewFetcher(cfg.URL, opts...)
		if err != nil {
			return nil, nil, err
		}
		return f, f, nil
	case SourceMinio:
		client, err := minio.NewClient(minio.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Region:    cfg.MinioRegion,
			Secure:    cfg.MinioSecure,
		})
		if err != nil {
			return nil, nil, err
		}
		return minio.NewFetcher(client, cfg.Bucket, cfg.Prefix), nil, nil
	default:
		f, err := fs.NewFetcher(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return f, f, nil
	}
}

// OpenSources wires fetcher, decoders and logging for cfg.
func OpenSources(cfg *Config, logger *slog.Logger) (*Sources, error) {
	raw, closer, err := openFetcher(cfg)
	if err != nil {
		return nil, err
	}

	var fetcher docnav.Fetcher = decompress.NewFetcher(raw)
	if logger != nil {
		fetcher = docslog.NewLoggingFetcher(fetcher, logger)
	}
	s := NewSources(fetcher, cfg, logger)
	if closer != nil {
		s.closers = append(s.closers, closer)
	}
	return s, nil
}

// NewSources decodes the configured format from fetcher.
func NewSources(fetcher docnav.Fetcher, cfg *Config, logger *slog.Logger) *Sources {
	s := &Sources{Fetcher: fetcher}

	switch cfg.Format {
	case FormatQHP:
		src := qhp.NewSource(fetcher, cfg.QHPFile)
		s.Nav = src
		s.Shards = src
		s.Keys = func(ctx context.Context) ([]string, error) {
			p, err := src.Project(ctx)
			if err != nil {
				return nil, err
			}
			return slices.Sorted(maps.Keys(p.Shards)), nil
		}
	default:
		shards := doxygen.NewShardSource(fetcher, nil)
		s.Nav = doxygen.NewNavSource(fetcher)
		s.Shards = shards
		s.Keys = func(ctx context.Context) ([]string, error) {
			layout, err := shards.Layout(ctx)
			if err != nil {
				return nil, err
			}
			return layout.Keys(), nil
		}
	}

	if logger != nil {
		s.Nav = docslog.NewLoggingNavSource(s.Nav, logger)
		s.Shards = docslog.NewLoggingShardSource(s.Shards, logger)
	}
	return s
}

// recordingFetcher remembers every file fetched successfully.
type recordingFetcher struct {
	next docnav.Fetcher

	mu    sync.Mutex
	files map[string][]byte
}

func newRecordingFetcher(next docnav.Fetcher) *recordingFetcher {
	return &recordingFetcher{next: next, files: make(map[string][]byte)}
}

func (f *recordingFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	data, err := f.next.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.files[docnav.CleanLocation(name)] = data
	f.mu.Unlock()
	return data, nil
}

// Files returns the recorded files by name.
func (f *recordingFetcher) Files() map[string][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.files)
}
