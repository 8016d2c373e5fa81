package dca

import (
	"context"
	"fmt"

	"krakendca/internal/entity"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Service struct {
	exchange entity.Exchange
}

func New(exchange entity.Exchange) *Service {
	return &Service{exchange: exchange}
}

// BuyParams describes a single buy invocation. Amount is a fiat spend
// unless Units is set, in which case it is the literal volume to buy.
type BuyParams struct {
	Pair   string
	Amount decimal.Decimal
	Buffer decimal.Decimal
	Units  bool
	DryRun bool
}

func (p BuyParams) validate() error {
	if p.Pair == "" {
		return fmt.Errorf("pair is empty")
	}
	if !p.Amount.GreaterThan(decimal.Zero) {
		return fmt.Errorf("amount must be positive: amount=%s", p.Amount.String())
	}
	if p.Buffer.IsNegative() {
		return fmt.Errorf("buffer must not be negative: buffer=%s", p.Buffer.String())
	}

	return nil
}

// BuyLimitOrder fetches the current ask, computes the limit price and
// volume, and places the order. In dry-run mode it stops after computing
// and returns a nil order.
func (s *Service) BuyLimitOrder(ctx context.Context, params BuyParams) (*entity.Order, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	ask, err := s.exchange.AskPrice(ctx, params.Pair)
	if err != nil {
		return nil, err
	}

	limitPrice := LimitPrice(ask, params.Buffer)
	if !limitPrice.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("non-positive limit price %s for ask %s", limitPrice.String(), ask.String())
	}

	volume := OrderVolume(params.Amount, limitPrice, params.Units)

	logger := logrus.WithFields(logrus.Fields{
		"pair":   params.Pair,
		"ask":    ask.String(),
		"buffer": params.Buffer.String(),
		"price":  limitPrice.String(),
		"volume": volume.String(),
	})
	logger.Info("computed buy limit order")

	if params.DryRun {
		logger.Info("dry run, order not placed")
		return nil, nil
	}

	return s.exchange.PlaceOrder(ctx, entity.OrderRequest{
		Pair:   params.Pair,
		Side:   entity.OrderSideBuy,
		Type:   entity.OrderTypeLimit,
		Price:  limitPrice,
		Volume: volume,
	})
}

// LimitPrice biases the limit above the ask by the buffer fraction so the
// order is likely to fill promptly while still bounding cost. The result is
// exact; PlaceOrder normalizes it to the pair's reported price precision
// before submission.
func LimitPrice(ask, buffer decimal.Decimal) decimal.Decimal {
	return ask.Mul(decimal.NewFromInt(1).Add(buffer))
}

// OrderVolume converts a fiat spend into base-asset volume at the limit
// price, or passes the literal units through unchanged.
func OrderVolume(amount, limitPrice decimal.Decimal, units bool) decimal.Decimal {
	if units {
		return amount
	}

	return amount.Div(limitPrice)
}
