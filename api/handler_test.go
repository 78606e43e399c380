// Package api - Handler tests
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jewelcost/core/cache"
	"jewelcost/core/labor"
	"jewelcost/core/metals"
	"jewelcost/core/pricing"
	"jewelcost/core/rates"
)

const testAdminToken = "test-admin-token"

func newTestServer(t *testing.T, fetcher metals.Fetcher) *Server {
	t.Helper()
	backend := cache.NewMemoryBackend(time.Minute)
	t.Cleanup(func() { backend.Close() })

	table := rates.Default()
	source := metals.NewSource(cache.New[metals.RawPrices](backend, nil), fetcher, time.Hour, table.MetalDefaults, nil)
	estimator := labor.NewEstimator(nil, table, nil)
	calc := pricing.NewCalculator(source, estimator, table, nil)

	handler := NewHandler(calc, source, table, testAdminToken, nil)
	return NewServer(":0", handler, 5*time.Second, nil)
}

func liveFeed() metals.StaticFetcher {
	return metals.StaticFetcher{Prices: metals.RawPrices{
		Gold24K:   decimal.NewFromInt(300),
		Silver:    decimal.NewFromInt(4),
		Platinum:  decimal.NewFromInt(120),
		FetchedAt: time.Now().UTC(),
	}}
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

// TestQuoteHappyPath posts a full quote request and checks the
// breakdown shape
func TestQuoteHappyPath(t *testing.T) {
	srv := newTestServer(t, liveFeed())

	rec := doJSON(t, srv, http.MethodPost, "/v1/quote", `{
		"material": "gold_18k",
		"jewelry_type": "ring",
		"size": "medium",
		"stones": [
			{"type": "diamond", "size": "small", "quantity": 2}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.QuoteID)
	require.NotNil(t, resp.Breakdown)
	assert.Equal(t, "ILS", resp.Breakdown.Currency)
	assert.True(t, resp.Breakdown.Total.IsPositive())
	assert.Len(t, resp.Breakdown.Stones.Items, 1)
	assert.Equal(t, "live", resp.Breakdown.Metadata.MetalPricesSource)
	assert.Equal(t, "rules", resp.Breakdown.Metadata.LaborSource)
	assert.True(t, resp.Breakdown.PriceRange.Low.LessThanOrEqual(resp.Breakdown.Total))
	assert.True(t, resp.Breakdown.PriceRange.High.GreaterThanOrEqual(resp.Breakdown.Total))
}

// TestQuoteValidation covers the rejection paths
func TestQuoteValidation(t *testing.T) {
	srv := newTestServer(t, liveFeed())

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"material":`},
		{"missing material", `{"jewelry_type": "ring"}`},
		{"unknown material", `{"material": "mithril", "jewelry_type": "ring"}`},
		{"unknown jewelry type", `{"material": "gold_18k", "jewelry_type": "crown"}`},
		{"bad size", `{"material": "gold_18k", "jewelry_type": "ring", "size": "gigantic"}`},
		{"margin at or below 1", `{"material": "gold_18k", "jewelry_type": "ring", "margin_multiplier": 1.0}`},
		{"stone without quantity", `{"material": "gold_18k", "jewelry_type": "ring", "stones": [{"type": "diamond", "size": "small"}]}`},
		{"unknown stone type", `{"material": "gold_18k", "jewelry_type": "ring", "stones": [{"type": "opal", "size": "small", "quantity": 1}]}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/v1/quote", c.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

// TestQuickQuote checks the legacy endpoint with an explicit metal
// price
func TestQuickQuote(t *testing.T) {
	srv := newTestServer(t, metals.StaticFetcher{Err: errors.New("feed down")})

	rec := doJSON(t, srv, http.MethodPost, "/v1/quote/quick", `{
		"material": "silver",
		"jewelry_type": "ring",
		"size": "medium",
		"complexity": "moderate",
		"stone_sizes": ["medium"],
		"metal_price_per_gram": 100
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp QuickQuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Breakdown)

	assert.Equal(t, "957", resp.Breakdown.Materials.String())
	assert.Equal(t, "2150", resp.Breakdown.Stones.String())
	assert.Equal(t, "780", resp.Breakdown.Labor.String())
	assert.Equal(t, "11175", resp.Breakdown.Total.String())
}

// TestMetalsEndpoint checks the price table report
func TestMetalsEndpoint(t *testing.T) {
	srv := newTestServer(t, liveFeed())

	rec := doJSON(t, srv, http.MethodGet, "/v1/metals", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MetalsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "225", resp.Prices.Gold18K.String())
	assert.True(t, resp.Fresh)
	assert.Greater(t, resp.TTLSeconds, int64(0))
}

// TestMetalsRefreshRequiresToken proves the admin gate
func TestMetalsRefreshRequiresToken(t *testing.T) {
	srv := newTestServer(t, liveFeed())

	// no token
	rec := doJSON(t, srv, http.MethodPost, "/v1/metals/refresh", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// wrong token
	req := httptest.NewRequest(http.MethodPost, "/v1/metals/refresh", strings.NewReader(""))
	req.Header.Set("X-Admin-Token", "wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// correct token
	req = httptest.NewRequest(http.MethodPost, "/v1/metals/refresh", strings.NewReader(""))
	req.Header.Set("X-Admin-Token", testAdminToken)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

// TestMetalsRefreshUpstreamFailure proves a dead feed maps to 502 on
// the explicit refresh path
func TestMetalsRefreshUpstreamFailure(t *testing.T) {
	srv := newTestServer(t, metals.StaticFetcher{Err: errors.New("feed down")})

	req := httptest.NewRequest(http.MethodPost, "/v1/metals/refresh", strings.NewReader(""))
	req.Header.Set("X-Admin-Token", testAdminToken)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())
}

// TestStoneEstimateEndpoint checks the quick diamond estimate query
func TestStoneEstimateEndpoint(t *testing.T) {
	srv := newTestServer(t, liveFeed())

	rec := doJSON(t, srv, http.MethodGet, "/v1/stones/estimate?size=medium&quality=standard", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp StoneEstimateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2145", resp.Price.String())
	assert.Equal(t, "ILS", resp.Currency)

	// carat beats category
	rec = doJSON(t, srv, http.MethodGet, "/v1/stones/estimate?size=tiny&carat=1.5&quality=luxury", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// 1.5 x 16000 x 2.0 x 1.1
	assert.Equal(t, "52800", resp.Price.String())

	// bad inputs
	rec = doJSON(t, srv, http.MethodGet, "/v1/stones/estimate?carat=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, srv, http.MethodGet, "/v1/stones/estimate", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestHealthEndpoint checks liveness
func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, liveFeed())

	rec := doJSON(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

// TestQuoteSurvivesDeadFeed proves the quote path degrades to the
// default price table instead of failing
func TestQuoteSurvivesDeadFeed(t *testing.T) {
	srv := newTestServer(t, metals.StaticFetcher{Err: errors.New("feed down")})

	rec := doJSON(t, srv, http.MethodPost, "/v1/quote", `{
		"material": "gold_18k",
		"jewelry_type": "ring"
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "fallback", resp.Breakdown.Metadata.MetalPricesSource)
	assert.True(t, resp.Breakdown.Total.IsPositive())
}
