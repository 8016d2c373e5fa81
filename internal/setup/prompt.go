package setup

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
)

// PromptSymbol asks for the exact kraken pair symbol when --symbol was
// omitted.
func PromptSymbol() (string, error) {
	var symbol string

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Trading pair").
				Description("Exact kraken pair symbol (e.g. XXBTZEUR, SOLEUR, XETHZEUR)").
				Value(&symbol).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("symbol cannot be empty")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return "", err
	}

	return strings.ToUpper(strings.TrimSpace(symbol)), nil
}

// PromptAmount asks for the amount when --amount was omitted. The title
// reflects whether the value is a fiat spend or asset units.
func PromptAmount(units bool) (string, error) {
	title := "Fiat amount to spend"
	if units {
		title = "Asset units to buy"
	}

	var amount string

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Description("Enter a positive number").
				Value(&amount).
				Validate(func(s string) error {
					value, err := decimal.NewFromString(strings.TrimSpace(s))
					if err != nil {
						return fmt.Errorf("not a number")
					}
					if !value.GreaterThan(decimal.Zero) {
						return fmt.Errorf("must be positive")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(amount), nil
}
