// Package polymarket provides a client for the Polymarket Gamma API.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"edgewatch/internal/logger"
	"edgewatch/internal/models"
)

// ClientConfig tunes retry and pagination behavior.
type ClientConfig struct {
	MaxRetries     int
	RetryDelayBase time.Duration
	RetryDelayMax  time.Duration
	PageSize       int
	// RequestsPerSecond gates paginated full scans so they never hammer
	// the API. Zero disables the limiter.
	RequestsPerSecond float64
}

// Client provides access to the Polymarket Gamma API.
type Client struct {
	gammaAPIURL string
	httpClient  *http.Client
	limiter     *rate.Limiter
	cfg         ClientConfig
}

// gammaMarket mirrors one market object from the Gamma /markets endpoint.
// Outcomes and prices arrive as JSON-encoded string fields.
type gammaMarket struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Slug          string   `json:"slug"`
	Outcomes      string   `json:"outcomes"`      // JSON string: "[\"Yes\", \"No\"]"
	OutcomePrices string   `json:"outcomePrices"` // JSON string: "[\"0.75\", \"0.25\"]"
	Volume        string   `json:"volume"`
	Volume24hr    float64  `json:"volume24hr"`
	Liquidity     string   `json:"liquidity"`
	EndDate       string   `json:"endDate"`
	Active        bool     `json:"active"`
	Closed        bool     `json:"closed"`
	Tags          []string `json:"tags"`
	Image         string   `json:"image"`
}

// NewClient creates a new Gamma API client.
func NewClient(gammaAPIURL string, timeout time.Duration, cfg ClientConfig) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = 2 * time.Second
	}
	if cfg.RetryDelayMax <= 0 {
		cfg.RetryDelayMax = 30 * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 500
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &Client{
		gammaAPIURL: gammaAPIURL,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     limiter,
		cfg:         cfg,
	}
}

// FetchActiveMarkets retrieves one page of active markets ordered by 24h volume.
func (c *Client) FetchActiveMarkets(ctx context.Context, limit, offset int) ([]models.Market, error) {
	q := url.Values{}
	q.Set("active", "true")
	q.Set("closed", "false")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("order", "volume24hr")
	q.Set("ascending", "false")
	return c.fetchMarkets(ctx, q)
}

// FetchAllActiveMarkets pages through every active market. This can return
// tens of thousands of records on a full scan.
func (c *Client) FetchAllActiveMarkets(ctx context.Context) ([]models.Market, error) {
	var all []models.Market
	offset := 0
	log := logger.WithComponent("polymarket")

	for {
		q := url.Values{}
		q.Set("active", "true")
		q.Set("closed", "false")
		q.Set("limit", strconv.Itoa(c.cfg.PageSize))
		q.Set("offset", strconv.Itoa(offset))

		page, err := c.fetchMarkets(ctx, q)
		if err != nil {
			if len(all) > 0 {
				// A torn scan must not be processed as a full batch.
				return nil, fmt.Errorf("scan aborted at offset %d: %w", offset, err)
			}
			return nil, err
		}
		all = append(all, page...)
		log.Debugf("fetched %d markets (total: %d)", len(page), len(all))

		if len(page) < c.cfg.PageSize {
			break
		}
		offset += c.cfg.PageSize
	}

	log.Infof("full market scan complete: %d markets", len(all))
	return all, nil
}

func (c *Client) fetchMarkets(ctx context.Context, query url.Values) ([]models.Market, error) {
	u, err := url.Parse(c.gammaAPIURL + "/markets")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	u.RawQuery = query.Encode()

	resp, err := c.doRequest(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch markets: %w", err)
	}
	defer resp.Body.Close()

	var raw []gammaMarket
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode markets: %w", err)
	}

	markets := make([]models.Market, 0, len(raw))
	for i := range raw {
		markets = append(markets, parseMarket(&raw[i]))
	}
	return markets, nil
}

// parseMarket normalizes one raw Gamma market. Malformed price or outcome
// fields degrade to empty slices rather than failing the batch.
func parseMarket(gm *gammaMarket) models.Market {
	outcomes := parseStringList(gm.Outcomes)
	prices := parseFloatList(gm.OutcomePrices)
	if len(prices) != len(outcomes) {
		logger.WithComponent("polymarket").Warnf(
			"market %s: %d outcomes but %d prices, dropping price data", gm.ID, len(outcomes), len(prices))
		outcomes = nil
		prices = nil
	}

	var endDate time.Time
	if gm.EndDate != "" {
		if t, err := time.Parse(time.RFC3339, gm.EndDate); err == nil {
			endDate = t
		}
	}

	return models.Market{
		ID:            gm.ID,
		Question:      gm.Question,
		Slug:          gm.Slug,
		Outcomes:      outcomes,
		OutcomePrices: prices,
		Volume:        parseFloat(gm.Volume),
		Volume24h:     gm.Volume24hr,
		Liquidity:     parseFloat(gm.Liquidity),
		EndDate:       endDate,
		Active:        gm.Active,
		Closed:        gm.Closed,
		Tags:          gm.Tags,
	}
}

// parseStringList decodes a JSON-encoded string list like '["Yes", "No"]',
// falling back to comma splitting for legacy payloads.
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err == nil {
		return out
	}
	return strings.Split(s, ",")
}

func parseFloatList(s string) []float64 {
	if s == "" {
		return nil
	}
	var raw []string
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		raw = strings.Split(s, ",")
	}
	out := make([]float64, 0, len(raw))
	for _, r := range raw {
		f, err := strconv.ParseFloat(strings.TrimSpace(r), 64)
		if err != nil {
			return nil
		}
		out = append(out, f)
	}
	return out
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// doRequest performs a GET with rate limiting and bounded exponential
// backoff on transport errors and 5xx responses.
func (c *Client) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.cfg.RetryDelayBase << (attempt - 1)
			if delay > c.cfg.RetryDelayMax {
				delay = c.cfg.RetryDelayMax
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}
		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
