package entity

import (
	"github.com/shopspring/decimal"
)

type OrderType string
type OrderSide string

const (
	// Kraken expects lowercase values for type and ordertype.
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"

	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

type OrderRequest struct {
	Pair          string
	Side          OrderSide
	Type          OrderType
	Price         decimal.Decimal
	Volume        decimal.Decimal
	ClientOrderID string
}

// Order is the exchange-assigned result of a placed order.
type Order struct {
	TxIDs       []string
	Description string
}
