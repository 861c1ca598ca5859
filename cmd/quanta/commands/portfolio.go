package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/quantafolio/internal/contracts"
	"github.com/wonny/quantafolio/internal/store"
	"github.com/wonny/quantafolio/internal/validation"
)

// portfolioCmd represents the portfolio command
var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "보유 종목 관리",
	Long: `최적화에 사용할 보유 종목(currentPortfolio)을 조회하거나 저장합니다.

Example:
  go run ./cmd/quanta portfolio show
  go run ./cmd/quanta portfolio set AAPL:10 MSFT:5 005930:20`,
}

var (
	portfolioShowCmd = &cobra.Command{
		Use:   "show",
		Short: "보유 종목 출력",
		RunE:  runPortfolioShow,
	}

	portfolioSetCmd = &cobra.Command{
		Use:   "set [TICKER:SHARES]...",
		Short: "보유 종목 저장 (덮어쓰기)",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPortfolioSet,
	}
)

func init() {
	rootCmd.AddCommand(portfolioCmd)
	portfolioCmd.AddCommand(portfolioShowCmd)
	portfolioCmd.AddCommand(portfolioSetCmd)
}

func runPortfolioShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.portfolios.LoadStrict(ctx)
	if errors.Is(err, store.ErrNotFound) {
		PrintInfo("No portfolio saved")
		return nil
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(p)
	}

	total := p.TotalShares()
	widths := []int{12, 10, 10}
	PrintTableHeader([]string{"Ticker", "Shares", "Weight"}, widths)
	for _, pos := range p.Positions {
		weight := 0.0
		if total > 0 {
			weight = pos.Shares / total
		}
		PrintTableRow([]string{pos.Ticker, strconv.FormatFloat(pos.Shares, 'f', -1, 64), pct(weight)}, widths)
	}
	return nil
}

func runPortfolioSet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	positions, err := parsePositions(args)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.portfolios.Save(ctx, &contracts.Portfolio{Positions: positions}); err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("Saved %d position(s)", len(positions)))
	return nil
}

// parsePositions reads TICKER:SHARES pairs
func parsePositions(args []string) ([]contracts.PortfolioPosition, error) {
	positions := make([]contracts.PortfolioPosition, 0, len(args))
	for _, arg := range args {
		ticker, sharesStr, ok := strings.Cut(arg, ":")
		if !ok || strings.TrimSpace(ticker) == "" {
			return nil, fmt.Errorf("expected TICKER:SHARES, got %q", arg)
		}
		shares, err := strconv.ParseFloat(strings.TrimSpace(sharesStr), 64)
		if err != nil {
			return nil, fmt.Errorf("shares for %s: %w", ticker, err)
		}
		positions = append(positions, contracts.PortfolioPosition{
			Ticker: validation.NormalizeKoreanTicker(strings.ToUpper(strings.TrimSpace(ticker))),
			Shares: shares,
		})
	}
	return positions, nil
}
