package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"PowerWallet/internal/model"

	"github.com/shopspring/decimal"
)

// HTTPOracle implements PriceOracle and IndicatorOracle over a REST API.
type HTTPOracle struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPOracle creates a new oracle client with optional proxy support.
func NewHTTPOracle(baseURL, apiKey, proxyURL string) *HTTPOracle {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &HTTPOracle{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (o *HTTPOracle) Name() string { return "http" }

type priceResponse struct {
	Asset    string          `json:"asset"`
	Answer   decimal.Decimal `json:"answer"`
	Decimals int32           `json:"decimals"`
}

type riskResponse struct {
	Asset      string          `json:"asset"`
	Volatility decimal.Decimal `json:"volatility"`
	Drawdown   decimal.Decimal `json:"drawdown"`
	Reserved   decimal.Decimal `json:"reserved"`
}

func (o *HTTPOracle) Price(ctx context.Context, asset model.Asset) (model.PriceQuote, error) {
	var resp priceResponse
	if err := o.get(ctx, "/api/v1/price", asset, &resp); err != nil {
		return model.PriceQuote{}, fmt.Errorf("fetch price: %w", err)
	}
	return model.PriceQuote{Answer: resp.Answer, Decimals: resp.Decimals}, nil
}

func (o *HTTPOracle) ReadRisk(ctx context.Context, asset model.Asset) (model.RiskReading, error) {
	var resp riskResponse
	if err := o.get(ctx, "/api/v1/risk", asset, &resp); err != nil {
		return model.RiskReading{}, fmt.Errorf("fetch risk: %w", err)
	}
	return model.RiskReading{Volatility: resp.Volatility, Drawdown: resp.Drawdown, Reserved: resp.Reserved}, nil
}

func (o *HTTPOracle) get(ctx context.Context, path string, asset model.Asset, out any) error {
	endpoint := fmt.Sprintf("%s%s?asset=%s", o.BaseURL, path, url.QueryEscape(asset.Symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if o.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.APIKey)
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
