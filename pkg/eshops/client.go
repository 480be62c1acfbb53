package eshops

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lncproducciones/eshops-cart/internal/metrics"
	"github.com/lncproducciones/eshops-cart/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// LocalVersion is reported while the remote API is unreachable.
const LocalVersion = "4.0.0.0-local"

var (
	ErrOffline         = errors.New("eshops: catalog is offline")
	ErrProductNotFound = errors.New("eshops: product not found")
)

type Connectivity int

const (
	Offline Connectivity = iota
	Online
)

func (c Connectivity) String() string {
	if c == Online {
		return "online"
	}

	return "offline"
}

// StatusError is returned for non-2xx answers of the remote API.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("eshops: %s returned status %d", e.Op, e.StatusCode)
}

// Client talks to the remote EShops API. Every call except Probe fails with
// ErrOffline until a probe succeeded.
type Client interface {
	Probe(ctx context.Context) (models.CatalogStatus, error)
	Watch(ctx context.Context, interval time.Duration)
	Status() models.CatalogStatus
	Connectivity() Connectivity
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	SubmitOrder(ctx context.Context, order *models.Order) (*models.OrderReceipt, error)
}

type Config struct {
	APIRoot string
	APIID   string
	APIKey  string
	Timeout time.Duration
	// HTTPClient overrides the default instrumented client.
	HTTPClient *http.Client
}

type client struct {
	httpClient *http.Client
	apiRoot    string
	apiID      string
	apiKey     string

	mu      sync.RWMutex
	state   Connectivity
	version string
}

type envelope[T any] struct {
	Result T `json:"resultado"`
}

func NewClient(cfg Config) Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &client{
		httpClient: httpClient,
		apiRoot:    cfg.APIRoot,
		apiID:      cfg.APIID,
		apiKey:     cfg.APIKey,
		state:      Offline,
	}
}

// Probe queries the API version and updates the connectivity state.
func (c *client) Probe(ctx context.Context) (models.CatalogStatus, error) {

	if c.apiKey == "" {
		slog.Error("*** No catalog API key configured, staying offline ***")
		c.setState(Offline, LocalVersion)
		return c.Status(), errors.New("eshops: api key is not configured")
	}

	endpoint, err := url.JoinPath(c.apiRoot, "sys", "version")
	if err != nil {
		return c.Status(), fmt.Errorf("eshops: building version url: %w", err)
	}

	body, err := c.do(ctx, "version", http.MethodGet, endpoint, nil)
	if err != nil {
		slog.Warn("Could not reach the catalog API, switching to offline mode", slog.String("error", err.Error()))
		c.setState(Offline, LocalVersion)
		return c.Status(), err
	}

	var version string
	if err := json.Unmarshal(body, &version); err != nil {
		version = strings.TrimSpace(string(body))
	}

	c.setState(Online, version)
	slog.Info("Catalog API online", slog.String("version", version))

	return c.Status(), nil
}

// Watch re-probes the API every interval until ctx is cancelled.
func (c *client) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = c.Probe(ctx)
		}
	}
}

func (c *client) Status() models.CatalogStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return models.CatalogStatus{Online: c.state == Online, Version: c.version}
}

func (c *client) Connectivity() Connectivity {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

func (c *client) GetProduct(ctx context.Context, id int64) (*models.Product, error) {

	if c.Connectivity() != Online {
		return nil, ErrOffline
	}

	endpoint, err := url.JoinPath(c.apiRoot, "adm", "pro-get", strconv.FormatInt(id, 10), c.apiKey)
	if err != nil {
		return nil, fmt.Errorf("eshops: building product url: %w", err)
	}

	body, err := c.do(ctx, "get_product", http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp envelope[*models.Product]
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("eshops: decoding product %d: %w", id, err)
	}

	if resp.Result == nil {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, id)
	}

	return resp.Result, nil
}

func (c *client) SubmitOrder(ctx context.Context, order *models.Order) (*models.OrderReceipt, error) {

	if c.Connectivity() != Online {
		return nil, ErrOffline
	}

	endpoint, err := url.JoinPath(c.apiRoot, "pedidos", "add", c.apiID, c.apiKey)
	if err != nil {
		return nil, fmt.Errorf("eshops: building order url: %w", err)
	}

	payload, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("eshops: encoding order: %w", err)
	}

	body, err := c.do(ctx, "submit_order", http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, err
	}

	var receipt models.OrderReceipt
	if len(body) > 0 {
		if err := json.Unmarshal(body, &receipt); err != nil {
			return nil, fmt.Errorf("eshops: decoding order receipt: %w", err)
		}
	}

	return &receipt, nil
}

func (c *client) do(ctx context.Context, op, method, endpoint string, payload []byte) (body []byte, err error) {
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		metrics.ObserveCatalogRequest(op, outcome)
	}()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("eshops: creating %s request: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eshops: %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("eshops: reading %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode}
	}

	return body, nil
}

func (c *client) setState(state Connectivity, version string) {
	c.mu.Lock()
	c.state = state
	c.version = version
	c.mu.Unlock()

	metrics.SetCatalogOnline(state == Online)
}
