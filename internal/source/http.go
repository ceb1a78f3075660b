package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"floorwatch/core-go/internal/floorplan"
)

type HTTPOptions struct {
	BaseURL      string
	Timeout      time.Duration
	RetryCount   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
	// Headers are sent on every request, e.g. an API key.
	Headers map[string]string
}

// HTTPFetcher reads floors from the building data API:
// GET {base}/data?page=details&building_id={id}.
type HTTPFetcher struct {
	log    zerolog.Logger
	client *resty.Client
}

func NewHTTPFetcher(log zerolog.Logger, opts HTTPOptions) *HTTPFetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	wait := opts.RetryWait
	if wait <= 0 {
		wait = 500 * time.Millisecond
	}
	maxWait := opts.RetryMaxWait
	if maxWait <= 0 {
		maxWait = 5 * time.Second
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(maxWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Accept", "application/json")
	for k, v := range opts.Headers {
		client.SetHeader(k, v)
	}

	return &HTTPFetcher{log: log, client: client}
}

func (f *HTTPFetcher) FetchFloors(ctx context.Context, buildingID string) ([]floorplan.Floor, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page":        "details",
			"building_id": buildingID,
		}).
		Get("/data")
	if err != nil {
		return nil, fmt.Errorf("request building data: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, ErrBuildingNotFound
	case resp.IsError():
		return nil, fmt.Errorf("building data api returned %d", resp.StatusCode())
	}

	floors, err := decodeFloors(f.log, resp.Body())
	if err != nil {
		return nil, err
	}

	f.log.Debug().
		Str("building_id", buildingID).
		Int("floors", len(floors)).
		Dur("elapsed", resp.Time()).
		Msg("fetched building data")
	return floors, nil
}
