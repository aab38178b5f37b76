package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ============================================================================
// HYPERLIQUID INFO API CLIENT
// ============================================================================

// MarketDataClient issues typed request/response calls against the
// Hyperliquid info endpoint. Stateless beyond the endpoint URL.
type MarketDataClient struct {
	apiURL  string
	client  *http.Client
	timeout time.Duration
}

func NewMarketDataClient(apiURL string, timeout time.Duration) *MarketDataClient {
	return &MarketDataClient{
		apiURL:  apiURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

type infoRequest struct {
	Type string `json:"type"`
	Req  any    `json:"req,omitempty"`
}

// post sends {type, req} and decodes the JSON response into out.
func (c *MarketDataClient) post(ctx context.Context, reqType string, req any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(infoRequest{Type: reqType, Req: req})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", reqType, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", reqType, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s request: %w", reqType, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s request: unexpected status %s", reqType, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", reqType, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", reqType, err)
	}
	return nil
}

// ============================================================================
// RESPONSE SHAPES
// ============================================================================

// AssetMeta is one entry of the exchange universe.
type AssetMeta struct {
	Name       string `json:"name"`
	SzDecimals int    `json:"szDecimals"`
}

// MetaResponse is the perpetuals metadata document.
type MetaResponse struct {
	Universe []AssetMeta `json:"universe"`
}

// AssetStats carries 24h statistics for one asset. Values arrive as
// decimal strings.
type AssetStats struct {
	Volume       string `json:"volume"`
	OpenInterest string `json:"openInterest"`
	OiChange     string `json:"oiChange"`
}

// FundingEntry is one funding-rate history record.
type FundingEntry struct {
	Coin            string `json:"coin"`
	FundingRate     string `json:"fundingRate"`
	NextFundingTime int64  `json:"nextFundingTime"` // Unix milliseconds
}

// Candle is one OHLC record from a candleSnapshot.
type Candle struct {
	Time  int64  `json:"t"`
	Open  string `json:"o"`
	Close string `json:"c"`
	High  string `json:"h"`
	Low   string `json:"l"`
}

// ============================================================================
// TYPED CALLS
// ============================================================================

// Meta fetches the exchange universe.
func (c *MarketDataClient) Meta(ctx context.Context) (*MetaResponse, error) {
	var out MetaResponse
	if err := c.post(ctx, "meta", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AllMids fetches the current mid-price per asset as decimal strings.
func (c *MarketDataClient) AllMids(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	if err := c.post(ctx, "allMids", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats24h fetches the 24h statistics map keyed by asset.
func (c *MarketDataClient) Stats24h(ctx context.Context) (map[string]AssetStats, error) {
	var out map[string]AssetStats
	if err := c.post(ctx, "spotMeta", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type fundingReq struct {
	Coin      string `json:"coin"`
	StartTime int64  `json:"startTime"`
}

// FundingHistory fetches funding-rate records since startTime.
func (c *MarketDataClient) FundingHistory(ctx context.Context, coin string, startTime int64) ([]FundingEntry, error) {
	var out []FundingEntry
	if err := c.post(ctx, "fundingHistory", fundingReq{Coin: coin, StartTime: startTime}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type candleReq struct {
	Coin      string `json:"coin"`
	Interval  string `json:"interval"`
	StartTime int64  `json:"startTime"`
}

// CandleSnapshot fetches candles for the given interval since startTime.
func (c *MarketDataClient) CandleSnapshot(ctx context.Context, coin, interval string, startTime int64) ([]Candle, error) {
	var out []Candle
	if err := c.post(ctx, "candleSnapshot", candleReq{Coin: coin, Interval: interval, StartTime: startTime}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
