package runtime

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
	"go.uber.org/zap"
)

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithMinify toggles esbuild minification. Enabled by default.
func WithMinify(enabled bool) HandlerOption {
	return func(h *Handler) {
		h.minify = enabled
	}
}

// WithLogger reports minification failures.
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

type asset struct {
	once        sync.Once
	body        []byte
	etag        string
	contentType string
	err         error
}

// Handler serves the runtime assets by base name, for example mounted with
// http.StripPrefix("/formflow/assets/", handler). Each asset is read and
// minified once.
type Handler struct {
	minify bool
	logger *zap.Logger
	assets map[string]*asset
}

// NewHandler returns a Handler for ScriptName and StylesheetName.
func NewHandler(options ...HandlerOption) *Handler {
	h := &Handler{
		minify: true,
		logger: zap.NewNop(),
		assets: map[string]*asset{
			ScriptName:     {contentType: "application/javascript; charset=utf-8"},
			StylesheetName: {contentType: "text/css; charset=utf-8"},
		},
	}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	name := path.Base(r.URL.Path)
	a, ok := h.assets[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	body, etag, err := h.load(name, a)
	if err != nil {
		http.Error(w, "runtime asset unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", a.contentType)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(body)
}

// Asset returns the served bytes for name.
func (h *Handler) Asset(name string) ([]byte, error) {
	a, ok := h.assets[name]
	if !ok {
		return nil, fmt.Errorf("runtime: unknown asset %q: %w", name, fs.ErrNotExist)
	}
	body, _, err := h.load(name, a)
	return body, err
}

func (h *Handler) load(name string, a *asset) ([]byte, string, error) {
	a.once.Do(func() {
		raw, err := fs.ReadFile(FS(), name)
		if err != nil {
			a.err = fmt.Errorf("runtime: read %s: %w", name, err)
			return
		}
		a.body = raw
		if h.minify {
			minified, err := Minify(name, raw)
			if err != nil {
				h.logger.Warn("formflow: asset minification failed, serving source",
					zap.String("asset", name),
					zap.Error(err),
				)
			} else {
				a.body = minified
			}
		}
		sum := sha256.Sum256(a.body)
		a.etag = `"` + hex.EncodeToString(sum[:8]) + `"`
	})
	return a.body, a.etag, a.err
}

// Minify compresses a script or stylesheet with esbuild. The loader is
// picked from the file extension.
func Minify(name string, source []byte) ([]byte, error) {
	loader := api.LoaderJS
	target := api.ES5
	if strings.HasSuffix(name, ".css") {
		loader = api.LoaderCSS
		target = api.DefaultTarget
	}
	result := api.Transform(string(source), api.TransformOptions{
		Loader:            loader,
		Target:            target,
		Sourcefile:        name,
		Charset:           api.CharsetUTF8,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
	})
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("runtime: minify %s: %s", name, result.Errors[0].Text)
	}
	return result.Code, nil
}
