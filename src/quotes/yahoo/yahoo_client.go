package yahoo

import (
	"context"
	"encoding/json"
	"fmt"

	"stock-pulse/src/interfaces"
	"stock-pulse/src/models"
)

const providerLabel = "Yahoo Finance (unofficial)"

// Client fetches the last traded price from the yahoo chart API.
type Client struct {
	Config  *models.MConfig
	Network interfaces.INetworkManager
}

// -----------------------------------------------------------------------------

func NewClient(cfg *models.MConfig, netMgr interfaces.INetworkManager) *Client {
	return &Client{
		Config:  cfg,
		Network: netMgr,
	}
}

// -----------------------------------------------------------------------------

func (c *Client) Name() string {
	return providerLabel
}

// -----------------------------------------------------------------------------

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				ExchangeName       string  `json:"exchangeName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// -----------------------------------------------------------------------------

// FetchPrice returns the regular market price and its timestamp (unix ms).
func (c *Client) FetchPrice(ctx context.Context, symbol string) (float64, int64, error) {
	params := map[string]string{
		"interval":       "1d",
		"range":          "1d",
		"includePrePost": "false",
	}

	url := fmt.Sprintf("%s/%s", c.Config.Providers.Yahoo.BaseURL, symbol)

	respBytes, err := c.Network.Get(ctx, url, params)
	if err != nil {
		return 0, 0, fmt.Errorf("network error for %s: %w", symbol, err)
	}

	return parseChartResponse(symbol, respBytes)
}

// -----------------------------------------------------------------------------

func parseChartResponse(symbol string, data []byte) (float64, int64, error) {
	var resp chartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, 0, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if resp.Chart.Error != nil {
		return 0, 0, fmt.Errorf("yahoo api error: %s - %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}

	if len(resp.Chart.Result) == 0 {
		return 0, 0, fmt.Errorf("no result in response for %s", symbol)
	}

	meta := resp.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return 0, 0, fmt.Errorf("no market price in response for %s", symbol)
	}

	// RegularMarketTime is in seconds
	return meta.RegularMarketPrice, meta.RegularMarketTime * 1000, nil
}
