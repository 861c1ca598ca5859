package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/wonny/quantafolio/internal/store"
)

// resultCmd represents the result command
var resultCmd = &cobra.Command{
	Use:   "result",
	Short: "저장된 최적화 결과",
	Long: `마지막으로 저장된 최적화 결과를 조회하거나 삭제합니다.

Subcommands:
  show   - 결과 출력
  clear  - 결과 삭제

Example:
  go run ./cmd/quanta result show
  go run ./cmd/quanta result show --json`,
}

var (
	resultShowCmd = &cobra.Command{
		Use:   "show",
		Short: "결과 출력",
		RunE:  runResultShow,
	}

	resultClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "결과 삭제",
		RunE:  runResultClear,
	}
)

func init() {
	rootCmd.AddCommand(resultCmd)
	resultCmd.AddCommand(resultShowCmd)
	resultCmd.AddCommand(resultClearCmd)
}

func runResultShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.results.LoadStrict(ctx)
	if errors.Is(err, store.ErrNotFound) {
		PrintInfo("No optimization result stored")
		return nil
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(result)
	}
	PrintResult(result)
	return nil
}

func runResultClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.results.Clear(ctx); err != nil {
		return err
	}
	PrintSuccess("Result cleared")
	return nil
}
