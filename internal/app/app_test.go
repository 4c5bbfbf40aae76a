package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formflow/internal/config"
	"github.com/goliatone/go-formflow/pkg/store"
)

const contactSchema = `{"steps":[{"id":"one","fields":[{"type":"email","name":"email"}]}]}`

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestNew_SeedsSchemasDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3-contact.json"), []byte(contactSchema), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "draft.json"), []byte(contactSchema), 0o644))

	cfg := config.Default()
	cfg.SchemasDir = dir
	cfg.Assets.Prefix = "/formflow/assets"

	a, err := New(context.Background(), nil, &cfg)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Shutdown(context.Background())) })

	ids, err := a.Orchestrator().FormIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids)

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/forms/3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `src="/formflow/assets/formflow-runtime.js"`)

	rec = httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/formflow/assets/formflow-runtime.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_WithStoreOverride(t *testing.T) {
	mem := store.NewMemory()
	cfg := config.Default()
	cfg.Store.Driver = config.DriverMongo

	a, err := New(context.Background(), nil, &cfg, WithStore(mem))
	require.NoError(t, err)

	_, err = a.Orchestrator().Save(context.Background(), 5, a.Orchestrator().NewForm())
	require.NoError(t, err)
	_, found, err := mem.Load(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, found)

	assert.NotNil(t, a.MCP("test").MCP())
	assert.Equal(t, ":8383", a.Addr())
}

func TestNew_MissingSchemasDir(t *testing.T) {
	cfg := config.Default()
	cfg.SchemasDir = filepath.Join(t.TempDir(), "missing")

	_, err := New(context.Background(), nil, &cfg)
	require.Error(t, err)
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(context.Background(), nil, nil)
	require.Error(t, err)
}
