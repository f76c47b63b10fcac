// Package coinmarketcap is a minimal client for the CoinMarketCap listings API.
package coinmarketcap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/irfndi/dss-scanner/internal/config"
)

const listingsPath = "/v1/cryptocurrency/listings/latest"

// ErrMissingData is returned when a response has no "data" field.
var ErrMissingData = errors.New("coinmarketcap response has no data")

// Status is the status block of every API response.
type Status struct {
	Timestamp    time.Time `json:"timestamp"`
	ErrorCode    int       `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
	CreditCount  int       `json:"credit_count"`
}

// Listing is one asset of the listings response.
type Listing struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Slug     string `json:"slug"`
	CMCRank  int    `json:"cmc_rank"`
	IsActive int    `json:"is_active,omitempty"`
}

// ListingsResponse is the body of /v1/cryptocurrency/listings/latest.
type ListingsResponse struct {
	Status Status     `json:"status"`
	Data   *[]Listing `json:"data"`
}

// APIError is a non-2xx answer from CoinMarketCap.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coinmarketcap error (%d/%d): %s", e.StatusCode, e.Code, e.Message)
}

// Client calls the CoinMarketCap pro API.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	apiKey     string
	convert    string
}

// NewClient creates a client from configuration.
func NewClient(cfg *config.CoinMarketCapConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	convert := cfg.Convert
	if convert == "" {
		convert = "USD"
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		BaseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		convert:    convert,
	}
}

// LatestListings returns up to limit assets ordered by market cap.
func (c *Client) LatestListings(ctx context.Context, limit int) ([]Listing, error) {
	params := url.Values{}
	params.Set("start", "1")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("convert", c.convert)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+listingsPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var listings ListingsResponse
	decodeErr := json.Unmarshal(body, &listings)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		if decodeErr == nil && listings.Status.ErrorMessage != "" {
			apiErr.Code = listings.Status.ErrorCode
			apiErr.Message = listings.Status.ErrorMessage
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", decodeErr)
	}
	if listings.Data == nil {
		return nil, ErrMissingData
	}
	return *listings.Data, nil
}
