package exchange

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"krakendca/internal/config"
	"krakendca/internal/entity"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPrivateKey is the example key from kraken's API signature docs.
const testPrivateKey = "kQH5HW/8p1uGOVjbgWA7FunAmGO8lsSUXNsu3eow76sz84Q18fWxnyRzBHCd3pd5nE9qa99HAZtuZuj6F1huXg=="

func newTestExchange(t *testing.T, handler http.Handler) (*KrakenExchange, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	e := NewKrakenExchange(config.KrakenConfig{
		PublicKey:  "test-public-key",
		PrivateKey: testPrivateKey,
		BaseURL:    server.URL,
	})

	return e, server
}

func TestSignRequest_KnownVector(t *testing.T) {
	// input/output vector published in kraken's REST API docs
	signature, err := signRequest(
		testPrivateKey,
		"/0/private/AddOrder",
		"1616492376594",
		"nonce=1616492376594&ordertype=limit&pair=XBTUSD&price=37500&type=buy&volume=1.25",
	)
	require.NoError(t, err)
	assert.Equal(t, "4/dpxb3iT4tp/ZCVEwSnEsLxx0bqyhLpdfOpc6fn7OR8+UClSV5n9E6aSS8MPtnRfp32bAb7nmbvDutrPxxHxw==", signature)
}

func TestSignRequest_InvalidKey(t *testing.T) {
	_, err := signRequest("not base64!!!", "/0/private/Balance", "1", "{}")
	require.Error(t, err)
}

func TestAskPrice(t *testing.T) {
	e, _ := newTestExchange(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathTicker, r.URL.Path)
		assert.Equal(t, "XXBTZEUR", r.URL.Query().Get("pair"))

		_, _ = io.WriteString(w, `{"error":[],"result":{"XXBTZEUR":{"a":["50000.0","1","1.000"],"b":["49999.9","1","1.000"]}}}`)
	}))

	ask, err := e.AskPrice(context.Background(), "XXBTZEUR")
	require.NoError(t, err)
	assert.True(t, ask.Equal(decimal.NewFromInt(50000)), "ask=%s", ask)
}

func TestAskPrice_CanonicalPairName(t *testing.T) {
	// kraken answers altname requests keyed by the canonical pair name
	e, _ := newTestExchange(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":[],"result":{"XXBTZEUR":{"a":["50000.0","1","1.000"]}}}`)
	}))

	ask, err := e.AskPrice(context.Background(), "XBTEUR")
	require.NoError(t, err)
	assert.True(t, ask.Equal(decimal.NewFromInt(50000)))
}

func TestAskPrice_UnknownPair(t *testing.T) {
	e, _ := newTestExchange(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":["EQuery:Unknown asset pair"],"result":{}}`)
	}))

	_, err := e.AskPrice(context.Background(), "NOPE")
	require.Error(t, err)

	var fetchErr *entity.PriceFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "NOPE", fetchErr.Pair)
	assert.Contains(t, err.Error(), "EQuery:Unknown asset pair")
}

func TestAskPrice_NetworkFailure(t *testing.T) {
	e := NewKrakenExchange(config.KrakenConfig{BaseURL: "http://127.0.0.1:1"})

	_, err := e.AskPrice(context.Background(), "XXBTZEUR")
	require.Error(t, err)
	assert.ErrorAs(t, err, new(*entity.PriceFetchError))
}

func TestAssetPairs(t *testing.T) {
	e, _ := newTestExchange(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathAssetPairs, r.URL.Path)

		_, _ = io.WriteString(w, `{"error":[],"result":{
			"XXBTZEUR":{"altname":"XBTEUR","wsname":"XBT/EUR","pair_decimals":1,"lot_decimals":8,"ordermin":"0.0001"},
			"SOLEUR":{"altname":"SOLEUR","wsname":"SOL/EUR","pair_decimals":2,"lot_decimals":8,"ordermin":"0.1"}
		}}`)
	}))

	pairs, err := e.AssetPairs(context.Background())
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	btc := pairs["XXBTZEUR"]
	assert.Equal(t, "XBTEUR", btc.Altname)
	assert.Equal(t, int32(1), btc.PairDecimals)
	assert.Equal(t, int32(8), btc.LotDecimals)
	assert.True(t, btc.OrderMin.Equal(decimal.NewFromFloat(0.0001)))
}

func TestAccountBalance(t *testing.T) {
	e, _ := newTestExchange(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, pathBalance, r.URL.Path)
		assert.Equal(t, "test-public-key", r.Header.Get("API-Key"))
		assert.NotEmpty(t, r.Header.Get("API-Sign"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var body map[string]string
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.NotEmpty(t, body["nonce"])

		_, _ = io.WriteString(w, `{"error":[],"result":{"ZEUR":"120.5","XXBT":"0.0052"}}`)
	}))

	balances, err := e.AccountBalance(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.True(t, balances["ZEUR"].Equal(decimal.NewFromFloat(120.5)))
	assert.True(t, balances["XXBT"].Equal(decimal.NewFromFloat(0.0052)))
}

func TestAccountBalance_InvalidKey(t *testing.T) {
	e, _ := newTestExchange(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":["EAPI:Invalid key"],"result":{}}`)
	}))

	_, err := e.AccountBalance(context.Background())
	require.Error(t, err)

	var authErr *entity.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Message, "EAPI:Invalid key")
}

func TestAccountBalance_MissingCredentials(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	e := NewKrakenExchange(config.KrakenConfig{BaseURL: server.URL})

	_, err := e.AccountBalance(context.Background())
	require.Error(t, err)
	assert.ErrorAs(t, err, new(*entity.CredentialsError))
	assert.Zero(t, calls, "missing credentials must fail before any network call")
}

func TestPlaceOrder(t *testing.T) {
	e, _ := newTestExchange(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case pathAssetPairs:
			_, _ = io.WriteString(w, `{"error":[],"result":{"XXBTZEUR":{"altname":"XBTEUR","pair_decimals":1,"lot_decimals":8,"ordermin":"0.0001"}}}`)
		case pathAddOrder:
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "test-public-key", r.Header.Get("API-Key"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)

			var body map[string]string
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Equal(t, "XXBTZEUR", body["pair"])
			assert.Equal(t, "buy", body["type"])
			assert.Equal(t, "limit", body["ordertype"])
			assert.NotEmpty(t, body["cl_ord_id"])
			assert.NotEmpty(t, body["nonce"])

			// price rounded and volume truncated to the pair's precision
			price, err := decimal.NewFromString(body["price"])
			require.NoError(t, err)
			assert.True(t, price.Equal(decimal.NewFromFloat(50100.1)), "price=%s", price)

			volume, err := decimal.NewFromString(body["volume"])
			require.NoError(t, err)
			assert.True(t, volume.Equal(decimal.NewFromFloat(0.00019960)), "volume=%s", volume)

			// the signature must verify against the exact bytes sent
			expected, err := signRequest(testPrivateKey, pathAddOrder, body["nonce"], string(raw))
			require.NoError(t, err)
			assert.Equal(t, expected, r.Header.Get("API-Sign"))

			_, _ = io.WriteString(w, `{"error":[],"result":{"txid":["OUF4EM-FRGI2-MQMWZD"],"descr":{"order":"buy 0.00019960 XBTEUR @ limit 50100.1"}}}`)
		default:
			t.Errorf("unexpected request path: %s", r.URL.Path)
		}
	}))

	order, err := e.PlaceOrder(context.Background(), entity.OrderRequest{
		Pair:   "XXBTZEUR",
		Side:   entity.OrderSideBuy,
		Type:   entity.OrderTypeLimit,
		Price:  decimal.NewFromFloat(50100.123),
		Volume: decimal.RequireFromString("0.000199601234567"),
	})
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, []string{"OUF4EM-FRGI2-MQMWZD"}, order.TxIDs)
	assert.Contains(t, order.Description, "buy")
}

func TestPlaceOrder_InsufficientFunds(t *testing.T) {
	e, _ := newTestExchange(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == pathAssetPairs {
			_, _ = io.WriteString(w, `{"error":[],"result":{}}`)
			return
		}
		_, _ = io.WriteString(w, `{"error":["EOrder:Insufficient funds"],"result":{}}`)
	}))

	_, err := e.PlaceOrder(context.Background(), entity.OrderRequest{
		Pair:   "XXBTZEUR",
		Side:   entity.OrderSideBuy,
		Type:   entity.OrderTypeLimit,
		Price:  decimal.NewFromInt(50100),
		Volume: decimal.NewFromFloat(0.0002),
	})
	require.Error(t, err)

	// the exchange's error text is passed through verbatim
	var rejected *entity.OrderRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, []string{"EOrder:Insufficient funds"}, rejected.Messages)
}

func TestPlaceOrder_MissingCredentials(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	e := NewKrakenExchange(config.KrakenConfig{BaseURL: server.URL})

	_, err := e.PlaceOrder(context.Background(), entity.OrderRequest{
		Pair:   "XXBTZEUR",
		Side:   entity.OrderSideBuy,
		Type:   entity.OrderTypeLimit,
		Price:  decimal.NewFromInt(50100),
		Volume: decimal.NewFromFloat(0.0002),
	})
	require.Error(t, err)
	assert.ErrorAs(t, err, new(*entity.CredentialsError))
	assert.Zero(t, calls)
}

func TestNextNonce_StrictlyIncreasing(t *testing.T) {
	e := NewKrakenExchange(config.KrakenConfig{})

	prev := int64(0)
	for i := 0; i < 1000; i++ {
		nonce, err := strconv.ParseInt(e.nextNonce(), 10, 64)
		require.NoError(t, err)
		assert.Greater(t, nonce, prev)
		prev = nonce
	}
}
