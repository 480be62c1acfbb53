package health

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lncproducciones/eshops-cart/internal/config"
	"github.com/lncproducciones/eshops-cart/internal/models"
	"github.com/lncproducciones/eshops-cart/pkg/eshops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReporter struct {
	online bool
}

func (s stubReporter) Status() models.CatalogStatus {
	if !s.online {
		return models.CatalogStatus{Version: "4.0.0.0-local"}
	}
	return models.CatalogStatus{Online: true, Version: "4.1"}
}

func memoryConfig() *config.Config {
	return &config.Config{
		Storage: config.Storage{Driver: config.StorageMemory},
		Catalog: config.Catalog{Timeout: time.Second},
	}
}

func TestStorageChecks(t *testing.T) {
	cfg := memoryConfig()
	assert.Empty(t, storageChecks(cfg))

	cfg.Storage.Driver = config.StorageRedis
	checks := storageChecks(cfg)
	require.Len(t, checks, 1)
	assert.Equal(t, "redis", checks[0].Name)

	cfg.Storage.Driver = config.StoragePostgres
	checks = storageChecks(cfg)
	require.Len(t, checks, 1)
	assert.Equal(t, "database", checks[0].Name)
}

func TestNewHealthHandler(t *testing.T) {
	t.Run("Catalog online", func(t *testing.T) {
		h, err := NewHealthHandler(memoryConfig(), stubReporter{online: true})
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		h.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), ComponentName)
	})

	t.Run("Catalog offline only degrades", func(t *testing.T) {
		h, err := NewHealthHandler(memoryConfig(), stubReporter{})
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		h.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Partially Available")
	})

	t.Run("Catalog state is read, not probed", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
		}))
		defer server.Close()

		client := eshops.NewClient(eshops.Config{APIRoot: server.URL + "/", APIID: "site-1", APIKey: "key-1", HTTPClient: server.Client()})

		h, err := NewHealthHandler(memoryConfig(), client)
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		h.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
		assert.Equal(t, eshops.Offline, client.Connectivity())
		assert.Contains(t, recorder.Body.String(), "catalog is offline")
	})
}
