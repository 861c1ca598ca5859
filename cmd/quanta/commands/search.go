package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/quantafolio/internal/stocks"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "종목 검색",
	Long: `게이트웨이의 종목 검색을 호출합니다.

Example:
  go run ./cmd/quanta search 삼성전자 --market KR
  go run ./cmd/quanta search apple`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var searchMarket string

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchMarket, "market", stocks.MarketAll, "KR | US | ALL")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.stocks.SearchMarket(ctx, strings.Join(args, " "), searchMarket)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(results)
	}

	if len(results) == 0 {
		PrintInfo("No stocks found")
		return nil
	}

	widths := []int{12, 36, 8}
	PrintTableHeader([]string{"Ticker", "Name", "Exchange"}, widths)
	for _, s := range results {
		PrintTableRow([]string{s.Ticker, s.Name, s.Exchange}, widths)
	}
	fmt.Printf("\n%d result(s)\n", len(results))
	return nil
}
