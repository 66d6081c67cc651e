package loan

import (
	"context"
	"log"
	"time"

	"github.com/go-resty/resty/v2"
)

// FallbackINRToUSD is used when the rate API is unreachable. Roughly the
// 2024 rate; a stale rate is better than a failed analysis.
const FallbackINRToUSD = 0.012

// ExchangeRateClient fetches the live INR to USD rate.
type ExchangeRateClient struct {
	url    string
	client *resty.Client
}

func NewExchangeRateClient(url string) *ExchangeRateClient {
	return &ExchangeRateClient{
		url:    url,
		client: resty.New().SetTimeout(5 * time.Second),
	}
}

type rateResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// INRToUSD returns the live rate, or the fallback when the API is down or
// answers nonsense. Never fails: a missing rate must not block an analysis.
func (c *ExchangeRateClient) INRToUSD(ctx context.Context) float64 {
	var out rateResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get(c.url)
	if err != nil {
		log.Printf("[exchange] rate fetch failed, using fallback: %v", err)
		return FallbackINRToUSD
	}
	if !resp.IsSuccess() {
		log.Printf("[exchange] rate fetch status=%d, using fallback", resp.StatusCode())
		return FallbackINRToUSD
	}
	rate, ok := out.Rates["USD"]
	if !ok || rate <= 0 {
		log.Printf("[exchange] no USD rate in response, using fallback")
		return FallbackINRToUSD
	}
	return rate
}
