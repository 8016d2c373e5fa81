package bootstrap

import (
	"context"
	"fmt"
	"sort"

	"krakendca/internal/config"
	"krakendca/internal/service/exchange"
	"krakendca/internal/util"
)

func StartPairs() {
	ctx := context.Background()

	kraken := exchange.NewKrakenExchange(config.Env.Kraken)

	pairs, err := kraken.AssetPairs(ctx)
	util.ContinueOrFatal(err)

	names := make([]string, 0, len(pairs))
	for name := range pairs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		meta := pairs[name]
		if meta.Altname != "" && meta.Altname != name {
			fmt.Printf("%s (%s)\n", name, meta.Altname)
			continue
		}
		fmt.Println(name)
	}
}
