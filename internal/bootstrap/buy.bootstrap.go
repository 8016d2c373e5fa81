package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"krakendca/internal/config"
	"krakendca/internal/service/dca"
	"krakendca/internal/service/exchange"
	"krakendca/internal/setup"
	"krakendca/internal/util"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type BuyOptions struct {
	Symbol string
	Amount string
	Units  bool
	Buffer string
	DryRun bool
}

func StartBuy(opts BuyOptions) {
	ctx := context.Background()

	symbol := strings.ToUpper(strings.TrimSpace(opts.Symbol))
	if symbol == "" {
		prompted, err := setup.PromptSymbol()
		util.ContinueOrFatal(err)
		symbol = prompted
	}

	amountStr := strings.TrimSpace(opts.Amount)
	if amountStr == "" {
		prompted, err := setup.PromptAmount(opts.Units)
		util.ContinueOrFatal(err)
		amountStr = prompted
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		util.ContinueOrFatal(fmt.Errorf("invalid --amount provided, --amount=%s", amountStr))
	}

	buffer, err := decimal.NewFromString(strings.TrimSpace(opts.Buffer))
	if err != nil {
		util.ContinueOrFatal(fmt.Errorf("invalid --buffer provided, --buffer=%s", opts.Buffer))
	}

	// credentials are checked before the first network call; a dry run only
	// touches public endpoints and works without them
	if !opts.DryRun {
		util.ContinueOrFatal(config.Env.Kraken.ValidateCredentials())
	}

	logrus.WithFields(logrus.Fields{
		"symbol":  symbol,
		"amount":  amount.String(),
		"units":   opts.Units,
		"buffer":  buffer.String(),
		"dry_run": opts.DryRun,
	}).Info("resolved buy request")

	svc := dca.New(exchange.NewKrakenExchange(config.Env.Kraken))

	order, err := svc.BuyLimitOrder(ctx, dca.BuyParams{
		Pair:   symbol,
		Amount: amount,
		Buffer: buffer,
		Units:  opts.Units,
		DryRun: opts.DryRun,
	})
	util.ContinueOrFatal(err)

	if order != nil {
		logrus.Infof("order placed: %s (txid: %s)", order.Description, strings.Join(order.TxIDs, ","))
	}
}
