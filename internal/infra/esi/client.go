package esi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"flipscan/internal/domain"
	"flipscan/internal/infra"
)

// XPagesHeader carries the externally reported total page count for paged
// endpoints.
const XPagesHeader = "X-Pages"

// Client is the EVE Swagger Interface (ESI) REST client (boundary layer).
// All calls are synchronous request/response; a failure here is fatal to the
// run, so there is no retry or backoff.
type Client struct {
	baseURL    string
	datasource string
	regionID   int32
	httpClient *http.Client
	logger     *slog.Logger

	// The same origin/destination pair recurs across many candidates within
	// one run; routes are static, so memoize them in-process.
	routes *gocache.Cache
}

// NewClient creates a new ESI client from configuration.
func NewClient(cfg *infra.Config) *Client {
	return &Client{
		baseURL:    cfg.API.ESI.BaseURL,
		datasource: cfg.API.ESI.Datasource,
		regionID:   cfg.API.ESI.RegionID,
		httpClient: &http.Client{
			Timeout: cfg.ESITimeout(),
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		logger: slog.Default().With("module", "esi_client"),
		routes: gocache.New(gocache.NoExpiration, 0),
	}
}

// FetchOrders returns one page of raw region orders for a side, plus the
// total page count the service reports for that side.
func (c *Client) FetchOrders(ctx context.Context, side domain.Side, page int) ([]OrderRecord, int, error) {
	query := url.Values{}
	query.Set("datasource", c.datasource)
	query.Set("order_type", string(side))
	query.Set("page", strconv.Itoa(page))

	endpoint := fmt.Sprintf("%s/markets/%d/orders/?%s", c.baseURL, c.regionID, query.Encode())

	var records []OrderRecord
	header, err := c.get(ctx, endpoint, &records)
	if err != nil {
		return nil, 0, domain.NewServiceError(fmt.Sprintf("fetch %s orders page %d", side, page), err)
	}

	totalPages := page
	if v := header.Get(XPagesHeader); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			totalPages = n
		}
	}

	c.logger.Debug("fetched order page",
		slog.String("side", string(side)),
		slog.Int("page", page),
		slog.Int("total_pages", totalPages),
		slog.Int("records", len(records)),
	)
	return records, totalPages, nil
}

// ItemType returns the static metadata for a commodity type.
func (c *Client) ItemType(ctx context.Context, typeID int32) (*ItemType, error) {
	endpoint := fmt.Sprintf("%s/universe/types/%d/?datasource=%s", c.baseURL, typeID, c.datasource)

	var item ItemType
	if _, err := c.get(ctx, endpoint, &item); err != nil {
		return nil, domain.NewServiceError(fmt.Sprintf("lookup type %d", typeID), err)
	}
	return &item, nil
}

// ShortestRoute returns the ordered waypoint list between two systems,
// endpoints included.
func (c *Client) ShortestRoute(ctx context.Context, origin, destination int32) ([]int32, error) {
	key := fmt.Sprintf("%d:%d", origin, destination)
	if cached, ok := c.routes.Get(key); ok {
		return cached.([]int32), nil
	}

	endpoint := fmt.Sprintf("%s/route/%d/%d/?datasource=%s&flag=shortest", c.baseURL, origin, destination, c.datasource)

	var route []int32
	if _, err := c.get(ctx, endpoint, &route); err != nil {
		return nil, domain.NewServiceError(fmt.Sprintf("route %d -> %d", origin, destination), err)
	}
	if len(route) == 0 && origin != destination {
		return nil, domain.NewServiceError(fmt.Sprintf("route %d -> %d", origin, destination), domain.ErrNoRoute)
	}

	c.routes.Set(key, route, gocache.NoExpiration)
	return route, nil
}

// ResolveNames resolves system, station and type IDs to display names.
func (c *Client) ResolveNames(ctx context.Context, ids []int64) ([]NameRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/universe/names/?datasource=%s", c.baseURL, c.datasource)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", infra.DefaultUserAgent)

	var names []NameRef
	if err := c.do(req, &names); err != nil {
		return nil, domain.NewServiceError("resolve names", err)
	}
	return names, nil
}

// get issues a GET request and decodes the JSON response body into out.
func (c *Client) get(ctx context.Context, endpoint string, out any) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", infra.DefaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return resp.Header, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
