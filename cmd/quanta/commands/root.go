package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quanta",
	Short: "Quantafolio - 포트폴리오 최적화 클라이언트",
	Long: `Quantafolio CLI

양자/고전 포트폴리오 최적화 백엔드에 요청을 보내고,
응답을 정규화하여 저장합니다. 저장된 결과는 브리지 서버를 통해
다른 화면과 공유됩니다.

Usage:
  go run ./cmd/quanta [command]

Examples:
  go run ./cmd/quanta probe
  go run ./cmd/quanta optimize --tickers AAPL,GOOGL,MSFT --method classical
  go run ./cmd/quanta result show
  go run ./cmd/quanta serve`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (LOG_LEVEL=debug)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of tables")
}
