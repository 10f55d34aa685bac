package molit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"aptsurge/server/internal/models"
	"aptsurge/server/internal/normalize"
)

var (
	ErrRateLimited = errors.New("API rate limit exceeded")
	ErrAPIResult   = errors.New("API returned an error result")
)

// Options configures the trade API client
type Options struct {
	BaseURL       string
	OperationPath string
	ServiceKey    string
	PageSize      int
	MaxAttempts   int
	PageInterval  time.Duration
	Timeout       time.Duration
}

// Client fetches apartment trades of one region and month from the MOLIT API
type Client struct {
	opts    Options
	client  *http.Client
	limiter *rate.Limiter
	logger  *logrus.Logger

	// sleep waits between retry attempts
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(opts Options, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 1000
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 8
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	limit := rate.Inf
	if opts.PageInterval > 0 {
		limit = rate.Every(opts.PageInterval)
	}

	return &Client{
		opts:    opts,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
		sleep:   sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) endpoint() string {
	return strings.TrimRight(c.opts.BaseURL, "/") + "/" + strings.TrimLeft(c.opts.OperationPath, "/")
}

// FetchMonth downloads every page of (lawdCd, dealYm), normalizes and dedupes the
// records and sorts them for storage.
func (c *Client) FetchMonth(ctx context.Context, lawdCd, dealYm string) ([]models.Transaction, error) {
	deduper := normalize.NewDeduper()
	var records []models.Transaction

	for page := 1; ; page++ {
		items, err := c.FetchPage(ctx, lawdCd, dealYm, page)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			break
		}
		for _, raw := range items {
			t := normalize.Normalize(raw, lawdCd, dealYm)
			if deduper.Add(t) {
				records = append(records, t)
			}
		}
	}

	normalize.SortPartition(records)

	c.logger.WithFields(logrus.Fields{
		"lawd_cd": lawdCd,
		"deal_ym": dealYm,
		"count":   len(records),
	}).Debug("Fetched month")

	return records, nil
}

// FetchPage downloads one page, retrying on rate limiting and transient failures
func (c *Client) FetchPage(ctx context.Context, lawdCd, dealYm string, page int) ([]normalize.RawItem, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"serviceKey": []string{c.opts.ServiceKey},
		"LAWD_CD":    []string{lawdCd},
		"DEAL_YMD":   []string{dealYm},
		"pageNo":     []string{strconv.Itoa(page)},
		"numOfRows":  []string{strconv.Itoa(c.opts.PageSize)},
	}
	reqURL := c.endpoint() + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < c.opts.MaxAttempts; attempt++ {
		body, status, err := c.get(ctx, reqURL)
		if err == nil && status == http.StatusTooManyRequests {
			lastErr = ErrRateLimited
			wait := time.Duration(15*(attempt+1)) * time.Second
			if wait > 60*time.Second {
				wait = 60 * time.Second
			}
			c.logger.WithFields(logrus.Fields{
				"lawd_cd": lawdCd,
				"deal_ym": dealYm,
				"page":    page,
				"attempt": attempt + 1,
				"wait":    wait.String(),
			}).Warn("Rate limited, backing off")
			if attempt == c.opts.MaxAttempts-1 {
				break
			}
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}
		if err == nil && status >= 400 {
			err = fmt.Errorf("unexpected status %d", status)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.logger.WithError(err).WithFields(logrus.Fields{
				"lawd_cd": lawdCd,
				"deal_ym": dealYm,
				"page":    page,
				"attempt": attempt + 1,
			}).Warn("Request failed")
			if attempt == c.opts.MaxAttempts-1 {
				break
			}
			if err := c.sleep(ctx, time.Duration(5*(attempt+1))*time.Second); err != nil {
				return nil, err
			}
			continue
		}

		return ParseResponse(body)
	}

	if errors.Is(lastErr, ErrRateLimited) {
		return nil, fmt.Errorf("%s/%s page %d: %w", lawdCd, dealYm, page, ErrRateLimited)
	}
	return nil, fmt.Errorf("failed to fetch %s/%s page %d after %d attempts: %w", lawdCd, dealYm, page, c.opts.MaxAttempts, lastErr)
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
