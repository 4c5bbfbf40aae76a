package openapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// DefaultMaxDocumentBytes caps remote documents.
const DefaultMaxDocumentBytes = 8 << 20

// LoaderOptions configures how a Loader resolves sources.
type LoaderOptions struct {
	// FileSystem backs SourceFromFS entries.
	FileSystem fs.FS

	// HTTPClient enables URL sources. Nil disables them unless
	// AllowHTTPFallback is set.
	HTTPClient *http.Client

	// AllowHTTPFallback enables URL sources with a default client.
	AllowHTTPFallback bool

	// RequestTimeout caps remote fetch durations.
	RequestTimeout time.Duration

	// MaxDocumentBytes caps remote payloads; zero uses DefaultMaxDocumentBytes.
	MaxDocumentBytes int64
}

// LoaderOption mutates LoaderOptions prior to construction.
type LoaderOption func(*LoaderOptions)

// WithFileSystem injects an fs.FS implementation for SourceFromFS entries.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.FileSystem = files
	}
}

// WithHTTPClient injects a custom HTTP client for remote documents.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.HTTPClient = client
	}
}

// WithHTTPFallback enables HTTP loading with a default client and assigns an
// optional timeout.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.AllowHTTPFallback = true
		opts.RequestTimeout = timeout
	}
}

// WithMaxDocumentBytes caps remote payloads.
func WithMaxDocumentBytes(n int64) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.MaxDocumentBytes = n
	}
}

// Loader reads raw OpenAPI payloads from files, fs.FS entries or URLs.
type Loader struct {
	fs       fs.FS
	http     *http.Client
	timeout  time.Duration
	maxBytes int64
}

// NewLoader builds a Loader. HTTP stays disabled unless a client or the
// fallback is configured.
func NewLoader(options ...LoaderOption) *Loader {
	cfg := LoaderOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	var httpClient *http.Client
	switch {
	case cfg.HTTPClient != nil:
		clone := *cfg.HTTPClient
		if cfg.RequestTimeout > 0 && clone.Timeout == 0 {
			clone.Timeout = cfg.RequestTimeout
		}
		httpClient = &clone
	case cfg.AllowHTTPFallback:
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	maxBytes := cfg.MaxDocumentBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDocumentBytes
	}
	return &Loader{
		fs:       cfg.FileSystem,
		http:     httpClient,
		timeout:  cfg.RequestTimeout,
		maxBytes: maxBytes,
	}
}

// Load fetches the payload for src.
func (l *Loader) Load(ctx context.Context, src schema.Source) ([]byte, error) {
	if src == nil {
		return nil, errors.New("openapi loader: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case schema.SourceKindFile:
		data, err = os.ReadFile(src.Location())
	case schema.SourceKindFS:
		if l.fs == nil {
			return nil, errors.New("openapi loader: filesystem is not configured")
		}
		data, err = fs.ReadFile(l.fs, src.Location())
	case SourceKindURL:
		if l.http == nil {
			return nil, errors.New("openapi loader: http support disabled")
		}
		data, err = l.loadHTTP(ctx, src.Location())
	default:
		err = fmt.Errorf("openapi loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return nil, fmt.Errorf("openapi loader: %s: %w", src.Location(), err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("openapi loader: %s: document is empty", src.Location())
	}
	return data, nil
}

func (l *Loader) loadHTTP(ctx context.Context, url string) ([]byte, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", l.maxBytes)
	}
	return data, nil
}
