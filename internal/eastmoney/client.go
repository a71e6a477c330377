// Package eastmoney fetches fund data from the Eastmoney public endpoints:
// realtime estimates from fundgz.1234567.com.cn and paginated NAV history
// from api.fund.eastmoney.com.
package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fundtrack-backend/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	DefaultRealtimeBaseURL = "http://fundgz.1234567.com.cn"
	DefaultHistoryBaseURL  = "http://api.fund.eastmoney.com"
	DefaultTimeout         = 10 * time.Second
	DefaultRequestInterval = 200 * time.Millisecond
	DefaultCacheTTL        = 60 * time.Second

	historyPageSize = 50
	maxHistoryPages = 200

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Fund NAV timestamps are published in China Standard Time.
var cst = time.FixedZone("CST", 8*60*60)

// Config configures a Client. Zero values fall back to the defaults above.
// Cache is optional; when set, raw realtime payloads are cached for CacheTTL.
type Config struct {
	RealtimeBaseURL string
	HistoryBaseURL  string
	Timeout         time.Duration
	RequestInterval time.Duration
	Cache           *redis.Client
	CacheTTL        time.Duration
}

// Client is a rate-limited HTTP client for the Eastmoney endpoints.
type Client struct {
	realtimeBaseURL string
	historyBaseURL  string
	httpClient      *http.Client
	limiter         *rate.Limiter
	cache           *redis.Client
	cacheTTL        time.Duration
	log             zerolog.Logger
}

// NewClient creates an Eastmoney client.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.RealtimeBaseURL == "" {
		cfg.RealtimeBaseURL = DefaultRealtimeBaseURL
	}
	if cfg.HistoryBaseURL == "" {
		cfg.HistoryBaseURL = DefaultHistoryBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestInterval <= 0 {
		cfg.RequestInterval = DefaultRequestInterval
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Client{
		realtimeBaseURL: strings.TrimRight(cfg.RealtimeBaseURL, "/"),
		historyBaseURL:  strings.TrimRight(cfg.HistoryBaseURL, "/"),
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		limiter:         rate.NewLimiter(rate.Every(cfg.RequestInterval), 1),
		cache:           cfg.Cache,
		cacheTTL:        cfg.CacheTTL,
		log:             log.With().Str("component", "eastmoney").Logger(),
	}
}

// realtimePayload is the raw jsonpgz body. Every field is a string upstream.
type realtimePayload struct {
	Code        string `json:"fundcode"`
	Name        string `json:"name"`
	SettledDate string `json:"jzrq"`
	SettledNav  string `json:"dwjz"`
	EstimateNav string `json:"gsz"`
	ChangePct   string `json:"gszzl"`
	Time        string `json:"gztime"`
}

// FetchRealtimeEstimate fetches the live estimate for a fund. The settled
// section (name + prior official NAV) must parse or the whole fetch is
// reported as domain.ErrUpstreamUnavailable; an unparseable live section only
// drops the Live quote.
func (c *Client) FetchRealtimeEstimate(ctx context.Context, code string) (*Estimate, error) {
	raw, err := c.realtimeBody(ctx, code)
	if err != nil {
		return nil, err
	}

	var payload realtimePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.log.Warn().Str("code", code).Err(err).Msg("Realtime payload is not valid JSON")
		return nil, domain.ErrUpstreamUnavailable
	}
	if payload.Name == "" {
		c.log.Warn().Str("code", code).Msg("Realtime payload has no fund name")
		return nil, domain.ErrUpstreamUnavailable
	}
	settledNav, err := decimal.NewFromString(payload.SettledNav)
	if err != nil {
		c.log.Warn().Str("code", code).Str("dwjz", payload.SettledNav).Msg("Realtime payload has unparseable settled NAV")
		return nil, domain.ErrUpstreamUnavailable
	}

	est := &Estimate{
		Code:       code,
		Name:       payload.Name,
		SettledNav: settledNav,
	}
	if d, err := time.ParseInLocation("2006-01-02", payload.SettledDate, cst); err == nil {
		est.SettledDate = d
	}
	est.Live = parseLiveQuote(payload)
	return est, nil
}

// parseLiveQuote returns a fully-parsed quote or nil. Never a partial one.
func parseLiveQuote(p realtimePayload) *LiveQuote {
	nav, err := decimal.NewFromString(p.EstimateNav)
	if err != nil {
		return nil
	}
	pct, err := decimal.NewFromString(p.ChangePct)
	if err != nil {
		return nil
	}
	ts, err := time.ParseInLocation("2006-01-02 15:04", p.Time, cst)
	if err != nil {
		return nil
	}
	return &LiveQuote{Nav: nav, ChangePct: pct, Time: ts}
}

func (c *Client) realtimeBody(ctx context.Context, code string) ([]byte, error) {
	cacheKey := "eastmoney:estimate:" + code
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	reqURL := fmt.Sprintf("%s/js/%s.js", c.realtimeBaseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Str("code", code).Err(err).Msg("Realtime estimate request failed")
		return nil, domain.ErrUpstreamUnavailable
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Str("code", code).Int("status", resp.StatusCode).Msg("Realtime estimate request failed")
		return nil, domain.ErrUpstreamUnavailable
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.ErrUpstreamUnavailable
	}

	// The endpoint returns JSONP: jsonpgz({...});
	trimmed := strings.TrimSpace(string(body))
	trimmed = strings.TrimPrefix(trimmed, "jsonpgz(")
	trimmed = strings.TrimSuffix(trimmed, ";")
	trimmed = strings.TrimSuffix(trimmed, ")")
	raw := []byte(trimmed)

	if c.cache != nil {
		// Best effort; a cache failure never fails the fetch.
		if err := c.cache.Set(ctx, cacheKey, raw, c.cacheTTL).Err(); err != nil {
			c.log.Debug().Err(err).Msg("Estimate cache write failed")
		}
	}
	return raw, nil
}

type historyResponse struct {
	Data struct {
		List []HistoryRecord `json:"LSJZList"`
	} `json:"Data"`
	TotalCount int `json:"TotalCount"`
}

// FetchHistory fetches historical NAV records for a fund, newest first as
// returned upstream, paginating internally up to maxHistoryPages. startDate
// and endDate are "2006-01-02" strings and may be empty. Upstream may ignore
// the startDate hint entirely; callers must filter. Any transport or decode
// failure yields an empty slice, indistinguishable from no-more-data, which
// is what the synchronizer expects.
func (c *Client) FetchHistory(ctx context.Context, code, startDate, endDate string) []HistoryRecord {
	c.log.Info().Str("code", code).Str("start", startDate).Msg("Fetching NAV history")

	var all []HistoryRecord
	for page := 1; page <= maxHistoryPages; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil
		}

		params := url.Values{}
		params.Set("fundCode", code)
		params.Set("pageIndex", strconv.Itoa(page))
		params.Set("pageSize", strconv.Itoa(historyPageSize))
		params.Set("startDate", startDate)
		params.Set("endDate", endDate)
		params.Set("_", strconv.FormatInt(time.Now().UnixMilli(), 10))

		reqURL := fmt.Sprintf("%s/f10/lsjz?%s", c.historyBaseURL, params.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil
		}
		req.Header.Set("User-Agent", userAgent)
		// The API rejects requests without a fund page referer.
		req.Header.Set("Referer", fmt.Sprintf("http://fundf10.eastmoney.com/jjjz_%s.html", code))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.log.Warn().Str("code", code).Int("page", page).Err(err).Msg("History request failed")
			return nil
		}
		var decoded historyResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&decoded)
		resp.Body.Close()
		if decodeErr != nil {
			c.log.Warn().Str("code", code).Int("page", page).Err(decodeErr).Msg("History response malformed")
			return nil
		}

		if len(decoded.Data.List) == 0 {
			break
		}
		all = append(all, decoded.Data.List...)
		if decoded.TotalCount <= len(all) {
			break
		}
	}

	c.log.Info().Str("code", code).Int("records", len(all)).Msg("NAV history fetched")
	return all
}
