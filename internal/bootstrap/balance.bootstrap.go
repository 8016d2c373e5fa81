package bootstrap

import (
	"context"
	"sort"

	"krakendca/internal/config"
	"krakendca/internal/service/exchange"
	"krakendca/internal/util"

	"github.com/sirupsen/logrus"
)

func StartBalance() {
	ctx := context.Background()

	util.ContinueOrFatal(config.Env.Kraken.ValidateCredentials())

	kraken := exchange.NewKrakenExchange(config.Env.Kraken)

	balances, err := kraken.AccountBalance(ctx)
	util.ContinueOrFatal(err)

	if len(balances) == 0 {
		logrus.Info("no balances found")
		return
	}

	assets := make([]string, 0, len(balances))
	for asset := range balances {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	for _, asset := range assets {
		logrus.Infof("%s: %s", asset, balances[asset].String())
	}
}
