package main

import (
	"flag"
	"os"

	"github.com/noah-isme/basket-pricing/internal/config"
	"github.com/noah-isme/basket-pricing/internal/obs"
	"github.com/noah-isme/basket-pricing/internal/pricing"
	"github.com/noah-isme/basket-pricing/internal/receipt"
)

var demoBasket = []string{"Beans:1", "Oranges:1", "Beans:1", "Beans:0.5", "Coke:1", "Coke:1"}

func main() {
	var (
		storeFile = flag.String("store", os.Getenv("PRICING_CATALOG_FILE"), "JSON file with products and offers; defaults to the built-in shop")
		logLevel  = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	logger := obs.NewLoggerTo(os.Stderr, "console", *logLevel)

	store, err := config.LoadStore(*storeFile)
	if err != nil {
		logger.Fatal().Err(err).Str("file", *storeFile).Msg("load pricing store")
	}
	calc, err := store.Calculator(pricing.WithRenderer(receipt.Writer{Out: os.Stdout}))
	if err != nil {
		logger.Fatal().Err(err).Msg("build calculator")
	}

	basket := flag.Args()
	if len(basket) == 0 {
		basket = demoBasket
	}
	total, err := calc.Calculate(basket)
	if err != nil {
		logger.Fatal().Err(err).Strs("basket", basket).Msg("price basket")
	}
	logger.Info().Str("total", total.String()).Int("entries", len(basket)).Msg("basket priced")
}
