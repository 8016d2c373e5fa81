package entity

import (
	"context"

	"github.com/shopspring/decimal"
)

type ExchangeName string

const (
	ExchangeKraken ExchangeName = "kraken"
)

// AssetPair holds the tradable pair metadata the exchange reports.
// PairDecimals and LotDecimals bound the precision the exchange accepts
// for price and volume respectively.
type AssetPair struct {
	Altname      string
	WSName       string
	PairDecimals int32
	LotDecimals  int32
	OrderMin     decimal.Decimal
}

type Exchange interface {
	AskPrice(ctx context.Context, pair string) (decimal.Decimal, error)
	AssetPairs(ctx context.Context) (map[string]AssetPair, error)
	AccountBalance(ctx context.Context) (map[string]decimal.Decimal, error)
	PlaceOrder(ctx context.Context, order OrderRequest) (*Order, error)
}
