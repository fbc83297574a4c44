// Package providers implements the external weather provider client with
// bounded retries and failure classification.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"berryfarm/internal/apperrors"
	"berryfarm/internal/common"
	"berryfarm/internal/weather"
)

const (
	defaultBaseURL = "https://api.weatherapi.com/v1"

	// maxAttempts bounds retries for connection failures and 5xx responses:
	// one initial attempt plus three retries. Retries are immediate; there
	// is no time budget, only the attempt cap.
	maxAttempts = 4
)

// WeatherAPIClient fetches single days of historical weather from
// WeatherAPI.com. Connection failures and 5xx responses are retried up to
// maxAttempts; 4xx responses are terminal and map 1:1 onto domain error
// kinds.
type WeatherAPIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
	log        zerolog.Logger
}

func NewWeatherAPIClient(client *http.Client, apiKey string, log zerolog.Logger) *WeatherAPIClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weatherapi",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 12
		},
	})

	return &WeatherAPIClient{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: client,
		circuit:    cb,
		log:        log.With().Str("component", "weatherapi").Logger(),
	}
}

// retryableError marks connection-level and 5xx failures.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// FetchDay retrieves the history payload for one location-day.
func (c *WeatherAPIClient) FetchDay(ctx context.Context, query string, date time.Time) (*weather.HistoryResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := c.attempt(ctx, query, date)
		if err == nil {
			return resp, nil
		}

		var re *retryableError
		if !errors.As(err, &re) {
			return nil, err
		}
		lastErr = err
		c.log.Warn().Err(err).Str("query", query).Str("date", common.DateKey(date)).
			Int("attempt", attempt).Msg("retryable provider failure")
	}
	return nil, fmt.Errorf("%w: %v", apperrors.ErrExceededRetries, lastErr)
}

// FetchRange issues one FetchDay per calendar day in the inclusive range,
// concurrently, and returns the payloads in date order. It does not consult
// the cache; the cache fans out on its own missing dates so retry behavior
// stays local to single-day fetches.
func (c *WeatherAPIClient) FetchRange(ctx context.Context, query string, start, end time.Time) ([]*weather.HistoryResponse, error) {
	days := common.DaysInRange(start, end)
	if len(days) == 0 {
		return nil, apperrors.InvalidArgument("end date %s precedes start date %s",
			common.DateKey(end), common.DateKey(start))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	results := make([]*weather.HistoryResponse, len(days))

	for i, d := range days {
		wg.Add(1)
		go func(idx int, day time.Time) {
			defer wg.Done()
			resp, err := c.FetchDay(ctx, query, day)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			results[idx] = resp
		}(i, d)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// attempt issues a single provider call and classifies the outcome.
func (c *WeatherAPIClient) attempt(ctx context.Context, query string, date time.Time) (*weather.HistoryResponse, error) {
	values := url.Values{}
	values.Set("key", c.apiKey)
	values.Set("q", query)
	values.Set("dt", common.DateKey(date))

	u := fmt.Sprintf("%s/history.json?%s", c.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.httpClient.Do(req)
		if execErr != nil {
			// No response at all: connection-level failure, retryable.
			return nil, &retryableError{err: execErr}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return nil, &retryableError{err: fmt.Errorf("provider returned %d", resp.StatusCode)}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, classifyStatus(resp)
		}

		var payload weather.HistoryResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&payload); decodeErr != nil {
			return nil, fmt.Errorf("decode provider payload: %w", decodeErr)
		}
		return &payload, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", apperrors.ErrExceededRetries)
		}
		return nil, err
	}

	payload, ok := result.(*weather.HistoryResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return payload, nil
}

// classifyStatus maps a terminal (non-5xx, non-2xx) provider response onto
// the domain error taxonomy, preserving the provider's message.
func classifyStatus(resp *http.Response) error {
	msg := providerMessage(resp.Body)

	var kind apperrors.Kind
	switch resp.StatusCode {
	case http.StatusBadRequest:
		kind = apperrors.KindInvalidArgument
	case http.StatusUnauthorized:
		kind = apperrors.KindUnauthenticated
	case http.StatusForbidden:
		kind = apperrors.KindPermissionDenied
	case http.StatusNotFound:
		kind = apperrors.KindNotFound
	default:
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, msg)
	}
	return apperrors.New(kind, "weather provider: %s", msg)
}

// providerMessage extracts the provider's error message, falling back to the
// raw body.
func providerMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "no error detail"
	}
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return string(raw)
}
