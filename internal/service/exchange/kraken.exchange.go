package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"krakendca/internal/config"
	"krakendca/internal/entity"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	defaultKrakenBaseURL = "https://api.kraken.com"
	defaultHTTPTimeout   = 15 * time.Second

	pathTicker     = "/0/public/Ticker"
	pathAssetPairs = "/0/public/AssetPairs"
	pathBalance    = "/0/private/Balance"
	pathAddOrder   = "/0/private/AddOrder"
)

type KrakenExchange struct {
	publicKey  string
	privateKey string
	baseURL    string
	httpClient *http.Client

	nonceMu   sync.Mutex
	lastNonce int64

	pairMetaMu sync.RWMutex
	pairMeta   map[string]entity.AssetPair
}

func NewKrakenExchange(cfg config.KrakenConfig) *KrakenExchange {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultKrakenBaseURL
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &KrakenExchange{
		publicKey:  strings.TrimSpace(cfg.PublicKey),
		privateKey: strings.TrimSpace(cfg.PrivateKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// AskPrice fetches the current best ask for a pair, fresh on every call.
func (e *KrakenExchange) AskPrice(ctx context.Context, pair string) (decimal.Decimal, error) {
	result, apiErrs, err := e.call(ctx, http.MethodGet, pathTicker, url.Values{"pair": {pair}}, nil)
	if err != nil {
		return decimal.Zero, &entity.PriceFetchError{Pair: pair, Err: err}
	}
	if len(apiErrs) > 0 {
		return decimal.Zero, &entity.PriceFetchError{Pair: pair, Err: fmt.Errorf("%s", strings.Join(apiErrs, "; "))}
	}

	var tickers map[string]struct {
		Ask []string `json:"a"`
	}
	if err := json.Unmarshal(result, &tickers); err != nil {
		return decimal.Zero, &entity.PriceFetchError{Pair: pair, Err: fmt.Errorf("ticker parse failed: %w", err)}
	}

	ticker, ok := tickers[pair]
	if !ok && len(tickers) == 1 {
		// kraken keys the result by the canonical pair name, which can
		// differ from the requested altname
		for _, v := range tickers {
			ticker = v
			ok = true
		}
	}
	if !ok || len(ticker.Ask) == 0 {
		return decimal.Zero, &entity.PriceFetchError{Pair: pair, Err: fmt.Errorf("no ticker data in response")}
	}

	ask, err := decimal.NewFromString(ticker.Ask[0])
	if err != nil {
		return decimal.Zero, &entity.PriceFetchError{Pair: pair, Err: fmt.Errorf("invalid ask price %q: %w", ticker.Ask[0], err)}
	}
	if !ask.GreaterThan(decimal.Zero) {
		return decimal.Zero, &entity.PriceFetchError{Pair: pair, Err: fmt.Errorf("non-positive ask price %s", ask.String())}
	}

	return ask, nil
}

// AssetPairs lists the tradable pairs known to the exchange along with
// their price and volume precision. Results are cached for pair metadata
// lookups within the same invocation.
func (e *KrakenExchange) AssetPairs(ctx context.Context) (map[string]entity.AssetPair, error) {
	result, apiErrs, err := e.call(ctx, http.MethodGet, pathAssetPairs, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(apiErrs) > 0 {
		return nil, fmt.Errorf("asset pairs request failed: %s", strings.Join(apiErrs, "; "))
	}

	var rawPairs map[string]struct {
		Altname      string          `json:"altname"`
		WSName       string          `json:"wsname"`
		PairDecimals int32           `json:"pair_decimals"`
		LotDecimals  int32           `json:"lot_decimals"`
		OrderMin     decimal.Decimal `json:"ordermin"`
	}
	if err := json.Unmarshal(result, &rawPairs); err != nil {
		return nil, fmt.Errorf("asset pairs parse failed: %w", err)
	}

	pairs := make(map[string]entity.AssetPair, len(rawPairs))
	for name, raw := range rawPairs {
		pairs[name] = entity.AssetPair{
			Altname:      raw.Altname,
			WSName:       raw.WSName,
			PairDecimals: raw.PairDecimals,
			LotDecimals:  raw.LotDecimals,
			OrderMin:     raw.OrderMin,
		}
	}

	e.pairMetaMu.Lock()
	e.pairMeta = make(map[string]entity.AssetPair, len(pairs)*2)
	for name, meta := range pairs {
		e.pairMeta[name] = meta
		if altname := strings.TrimSpace(meta.Altname); altname != "" {
			e.pairMeta[altname] = meta
		}
	}
	e.pairMetaMu.Unlock()

	return pairs, nil
}

// AccountBalance returns the available balance per asset.
func (e *KrakenExchange) AccountBalance(ctx context.Context) (map[string]decimal.Decimal, error) {
	if err := e.requireCredentials(); err != nil {
		return nil, err
	}

	result, apiErrs, err := e.call(ctx, http.MethodPost, pathBalance, nil, map[string]any{})
	if err != nil {
		return nil, err
	}
	if len(apiErrs) > 0 {
		if isAuthError(apiErrs) {
			return nil, &entity.AuthError{Message: strings.Join(apiErrs, "; ")}
		}
		return nil, fmt.Errorf("balance request failed: %s", strings.Join(apiErrs, "; "))
	}

	var rawBalances map[string]string
	if err := json.Unmarshal(result, &rawBalances); err != nil {
		return nil, fmt.Errorf("balance parse failed: %w", err)
	}

	balances := make(map[string]decimal.Decimal, len(rawBalances))
	for asset, raw := range rawBalances {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid balance for %s: %w", asset, err)
		}
		balances[asset] = amount
	}

	return balances, nil
}

// PlaceOrder submits a signed order and returns the exchange-assigned
// transaction ids and order description.
func (e *KrakenExchange) PlaceOrder(ctx context.Context, order entity.OrderRequest) (*entity.Order, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := e.requireCredentials(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(order.Pair) == "" {
		return nil, fmt.Errorf("order pair is empty")
	}
	if !order.Volume.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("order volume must be positive: volume=%s", order.Volume.String())
	}

	clientID := strings.TrimSpace(order.ClientOrderID)
	if clientID == "" {
		clientID = uuid.NewString()
	}

	price, volume := e.normalizeOrder(ctx, order)
	if !volume.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("order volume becomes zero after precision normalization: volume=%s", order.Volume.String())
	}

	body := map[string]any{
		"pair":      order.Pair,
		"type":      string(order.Side),
		"ordertype": string(order.Type),
		"volume":    volume.String(),
		"cl_ord_id": clientID,
	}
	if order.Type == entity.OrderTypeLimit {
		if !price.GreaterThan(decimal.Zero) {
			return nil, fmt.Errorf("limit order price must be positive: price=%s", order.Price.String())
		}
		body["price"] = price.String()
	}

	result, apiErrs, err := e.call(ctx, http.MethodPost, pathAddOrder, nil, body)
	if err != nil {
		return nil, err
	}
	if len(apiErrs) > 0 {
		if isAuthError(apiErrs) {
			return nil, &entity.AuthError{Message: strings.Join(apiErrs, "; ")}
		}
		return nil, &entity.OrderRejectedError{Messages: apiErrs}
	}

	var addOrderResp struct {
		TxID  []string `json:"txid"`
		Descr struct {
			Order string `json:"order"`
		} `json:"descr"`
	}
	if err := json.Unmarshal(result, &addOrderResp); err != nil {
		return nil, fmt.Errorf("order response parse failed: %w", err)
	}

	placed := &entity.Order{
		TxIDs:       addOrderResp.TxID,
		Description: addOrderResp.Descr.Order,
	}

	logrus.WithFields(logrus.Fields{
		"exchange":  string(entity.ExchangeKraken),
		"pair":      order.Pair,
		"side":      order.Side,
		"type":      order.Type,
		"price":     price.String(),
		"volume":    volume.String(),
		"cl_ord_id": clientID,
		"txid":      strings.Join(placed.TxIDs, ","),
		"descr":     placed.Description,
	}).Info("order placed")

	return placed, nil
}

// normalizeOrder rounds the price and truncates the volume to the pair's
// reported precision. Precision lookup failures are not fatal; the order
// goes out with the caller's values and the exchange has the last word.
func (e *KrakenExchange) normalizeOrder(ctx context.Context, order entity.OrderRequest) (decimal.Decimal, decimal.Decimal) {
	price := order.Price
	volume := order.Volume

	meta, ok, err := e.getPairMeta(ctx, order.Pair)
	if err != nil {
		logrus.WithError(err).WithField("pair", order.Pair).Warn("failed to fetch kraken pair precision")
		return price, volume
	}
	if !ok {
		return price, volume
	}

	return price.Round(meta.PairDecimals), volume.Truncate(meta.LotDecimals)
}

func (e *KrakenExchange) getPairMeta(ctx context.Context, pair string) (entity.AssetPair, bool, error) {
	normalized := strings.ToUpper(strings.TrimSpace(pair))
	if normalized == "" {
		return entity.AssetPair{}, false, nil
	}

	e.pairMetaMu.RLock()
	if meta, exists := e.pairMeta[normalized]; exists {
		e.pairMetaMu.RUnlock()
		return meta, true, nil
	}
	loaded := e.pairMeta != nil
	e.pairMetaMu.RUnlock()

	if loaded {
		return entity.AssetPair{}, false, nil
	}

	if _, err := e.AssetPairs(ctx); err != nil {
		return entity.AssetPair{}, false, err
	}

	e.pairMetaMu.RLock()
	meta, exists := e.pairMeta[normalized]
	e.pairMetaMu.RUnlock()

	return meta, exists, nil
}

func (e *KrakenExchange) requireCredentials() error {
	var missing []string
	if e.publicKey == "" {
		missing = append(missing, "PUBLIC_KEY")
	}
	if e.privateKey == "" {
		missing = append(missing, "PRIVATE_KEY")
	}

	if len(missing) > 0 {
		return &entity.CredentialsError{Missing: missing}
	}

	return nil
}

// call issues a request against the kraken REST API and decodes the
// {error, result} envelope. Private paths get a fresh nonce in the JSON
// body and API-Key/API-Sign headers.
func (e *KrakenExchange) call(ctx context.Context, method, path string, query url.Values, body map[string]any) (json.RawMessage, []string, error) {
	reqURL := e.baseURL + path

	queryStr := ""
	if len(query) > 0 {
		queryStr = query.Encode()
		reqURL += "?" + queryStr
	}

	private := strings.Contains(path, "/private/")

	nonce := ""
	if private {
		if body == nil {
			body = map[string]any{}
		}
		nonce = e.nextNonce()
		body["nonce"] = nonce
	}

	bodyStr := ""
	if len(body) > 0 {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyStr = string(raw)
	}

	var reader io.Reader
	if bodyStr != "" {
		reader = strings.NewReader(bodyStr)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, nil, err
	}
	if bodyStr != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if private {
		signature, err := signRequest(e.privateKey, path, nonce, queryStr+bodyStr)
		if err != nil {
			return nil, nil, fmt.Errorf("sign request: %w", err)
		}
		req.Header.Set("API-Key", e.publicKey)
		req.Header.Set("API-Sign", signature)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	var apiResp struct {
		Error  []string        `json:"error"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, nil, fmt.Errorf("kraken response parse failed: status=%d body=%s", resp.StatusCode, string(raw))
	}

	if resp.StatusCode >= http.StatusBadRequest && len(apiResp.Error) == 0 {
		return nil, nil, fmt.Errorf("kraken request failed: status=%d body=%s", resp.StatusCode, string(raw))
	}

	return apiResp.Result, apiResp.Error, nil
}

// nextNonce returns a strictly increasing millisecond timestamp. Two calls
// landing in the same millisecond still get distinct, increasing values.
func (e *KrakenExchange) nextNonce() string {
	e.nonceMu.Lock()
	defer e.nonceMu.Unlock()

	nonce := time.Now().UnixMilli()
	if nonce <= e.lastNonce {
		nonce = e.lastNonce + 1
	}
	e.lastNonce = nonce

	return strconv.FormatInt(nonce, 10)
}

// signRequest computes the API-Sign header for a private request:
// base64(HMAC-SHA512(base64decode(privateKey), path + SHA256(nonce + data))).
func signRequest(privateKey, path, nonce, data string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(privateKey)
	if err != nil {
		return "", fmt.Errorf("decode private key: %w", err)
	}

	digest := sha256.Sum256([]byte(nonce + data))

	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(path))
	mac.Write(digest[:])

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

func isAuthError(messages []string) bool {
	for _, msg := range messages {
		trimmed := strings.TrimSpace(msg)
		if strings.HasPrefix(trimmed, "EAPI:") ||
			strings.HasPrefix(trimmed, "EAuth:") ||
			strings.HasPrefix(trimmed, "EGeneral:Permission denied") {
			return true
		}
	}

	return false
}
