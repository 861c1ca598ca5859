package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/quantafolio/internal/currency"
)

// rateCmd represents the rate command
var rateCmd = &cobra.Command{
	Use:   "rate [from] [to]",
	Short: "환율 조회",
	Long: `환율을 조회합니다. 게이트웨이 → Naver(USD/KRW) → 캐시 → 기본값(1300) 순서로 시도합니다.

--amount 를 주면 USD 금액을 설정된 언어의 통화로 표시합니다.

Example:
  go run ./cmd/quanta rate
  go run ./cmd/quanta rate KRW USD
  go run ./cmd/quanta rate --amount 1250.5`,
	Args: cobra.MaximumNArgs(2),
	RunE: runRate,
}

var rateAmount float64

func init() {
	rootCmd.AddCommand(rateCmd)

	rateCmd.Flags().Float64Var(&rateAmount, "amount", 0, "표시할 USD 금액")
}

func runRate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	from, to := currency.USD, currency.KRW
	if len(args) > 0 {
		from = strings.ToUpper(args[0])
	}
	if len(args) > 1 {
		to = strings.ToUpper(args[1])
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	quote, err := a.currency.Quote(ctx, from, to)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(quote)
	}

	PrintKeyValue("Pair", from+"/"+to, 8)
	PrintKeyValue("Rate", fmt.Sprintf("%.4f", quote.Rate), 8)
	PrintKeyValue("Source", string(quote.Source), 8)

	if rateAmount != 0 {
		usdKRW := quote.Rate
		if from != currency.USD || to != currency.KRW {
			if usdKRW, err = a.currency.Rate(ctx, currency.USD, currency.KRW); err != nil {
				return err
			}
		}
		PrintKeyValue("Amount", currency.Format(rateAmount, a.settings.Get().Language, usdKRW), 8)
	}
	return nil
}
