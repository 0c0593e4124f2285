package ghostfolio_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/adapters/ghostfolio"
	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/alejandrodnm/eicfolio/internal/resilient"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "jwt-token"

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("../../../testdata/fixtures/" + name)
	require.NoError(t, err)
	return data
}

// newServer monta el endpoint de auth y delega el resto en routes.
func newServer(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/anonymous", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "secret", body["accessToken"])
		w.Write([]byte(`{"authToken":"` + testToken + `"}`))
	})
	for pattern, h := range routes {
		h := h
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
			h(w, r)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(srv *httptest.Server) *ghostfolio.Client {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	exec := resilient.New(log, resilient.WithSleep(func(context.Context, time.Duration) error { return nil }))
	return ghostfolio.NewClient(ghostfolio.Options{
		BaseURL:       srv.URL,
		SecurityToken: "secret",
		RatePerSec:    1000,
		Executor:      exec,
		Logger:        log,
	})
}

func openSession(t *testing.T, srv *httptest.Server) *ghostfolio.Session {
	t.Helper()
	s, err := newClient(srv).OpenSession(context.Background())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestSession_User(t *testing.T) {
	srv := newServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/user": func(w http.ResponseWriter, r *http.Request) {
			w.Write(fixture(t, "ghostfolio_user.json"))
		},
	})

	user, err := openSession(t, srv).User(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "EUR", user.BaseCurrency)
	require.Len(t, user.Tags, 1)
	assert.Equal(t, "EIC", user.Tags[0].Name)
}

func TestSession_Orders_Mapping(t *testing.T) {
	srv := newServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/order": func(w http.ResponseWriter, r *http.Request) {
			w.Write(fixture(t, "ghostfolio_orders.json"))
		},
	})

	orders, err := openSession(t, srv).Orders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "ABC", orders[0].Symbol)
	assert.True(t, orders[0].UnitPrice.Equal(decimal.NewFromInt(5)))
	assert.True(t, orders[0].HasTag("EIC"))
	assert.Equal(t, "EIC-MNG-FEE (01.02.2024)", orders[1].ProfileName)
	assert.False(t, orders[1].HasTag("EIC"))
}

func TestSession_CreateOrder_Payload(t *testing.T) {
	var got map[string]any
	srv := newServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/order": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Write([]byte(`{"id":"new-1","date":"2024-03-01T00:00:00.000Z","type":"BUY","unitPrice":5}`))
		},
	})

	created, err := openSession(t, srv).CreateOrder(context.Background(), domain.NewActivity{
		AccountID:     "acc-1",
		AssetClass:    domain.AssetClassEquity,
		AssetSubClass: domain.AssetSubClassETF,
		Currency:      "EUR",
		DataSource:    domain.DataSourceManual,
		Date:          "2024-03-01T00:00:00.000Z",
		Fee:           decimal.RequireFromString("0.5"),
		Quantity:      decimal.NewFromInt(10),
		Symbol:        "ABC",
		Tags:          []domain.Tag{{ID: "tag-1", Name: "EIC", UserID: "user-1"}},
		Type:          "BUY",
		UnitPrice:     decimal.NewFromInt(5),
	})

	require.NoError(t, err)
	assert.Equal(t, "new-1", created.ID)
	assert.Equal(t, "EUR", got["customCurrency"])
	assert.Equal(t, false, got["updateAccountBalance"])
	assert.Equal(t, 5.0, got["unitPrice"])
	assert.Equal(t, 10.0, got["quantity"])
	assert.Equal(t, "MANUAL", got["dataSource"])
	assert.Nil(t, got["comment"])
	tags := got["tags"].([]any)
	require.Len(t, tags, 1)
	assert.Equal(t, "tag-1", tags[0].(map[string]any)["id"])
}

func TestSession_CreateOrder_ValidationListsAllFields(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/order": func(w http.ResponseWriter, r *http.Request) { hits.Add(1) },
	})

	_, err := openSession(t, srv).CreateOrder(context.Background(), domain.NewActivity{
		Currency:   "EURO",
		DataSource: domain.DataSourceManual,
		Date:       "01.03.2024",
		Symbol:     "ABC",
		Type:       "DIVIDEND",
	})

	require.Error(t, err)
	var verr *ghostfolio.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 4)
	assert.Contains(t, err.Error(), "accountId")
	assert.Contains(t, err.Error(), "currency")
	assert.Contains(t, err.Error(), "date")
	assert.Contains(t, err.Error(), "type")
	assert.Zero(t, hits.Load())
}

func TestSession_RetriesRateLimitedCall(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/tags": func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) <= 2 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`[{"id":"tag-1","name":"EIC","userId":"user-1"}]`))
		},
	})

	tags, err := openSession(t, srv).Tags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.EqualValues(t, 3, hits.Load())
}

func TestSession_ServerErrorIsTranslated(t *testing.T) {
	srv := newServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/platform": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	})

	_, err := openSession(t, srv).Platforms(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed call getPlatforms()")
	var callErr *resilient.CallError
	assert.True(t, errors.As(err, &callErr))
}

func TestSession_ClosedSessionFails(t *testing.T) {
	srv := newServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/user": func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected after Close")
		},
	})

	s, err := newClient(srv).OpenSession(context.Background())
	require.NoError(t, err)
	s.Close()

	_, err = s.User(context.Background())
	assert.ErrorIs(t, err, ghostfolio.ErrSessionClosed)
}

func TestClient_OpenWithoutSecret(t *testing.T) {
	c := ghostfolio.NewClient(ghostfolio.Options{BaseURL: "http://localhost"})
	_, err := c.Open(context.Background())
	assert.Error(t, err)
}

func TestSession_SetMarketData(t *testing.T) {
	var body struct {
		MarketData []struct {
			Date        string  `json:"date"`
			MarketPrice float64 `json:"marketPrice"`
		} `json:"marketData"`
	}
	srv := newServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/market-data/MANUAL/ABC": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.WriteHeader(http.StatusCreated)
		},
	})

	err := openSession(t, srv).SetMarketData(context.Background(), "ABC", []domain.MarketPrice{
		{Date: "2024-03-01T00:00:00.000Z", Price: decimal.RequireFromString("12.5")},
	})
	require.NoError(t, err)
	require.Len(t, body.MarketData, 1)
	assert.Equal(t, 12.5, body.MarketData[0].MarketPrice)
}
