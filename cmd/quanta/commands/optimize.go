package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/quantafolio/internal/contracts"
	"github.com/wonny/quantafolio/internal/validation"
	"github.com/wonny/quantafolio/internal/workflow"
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "포트폴리오 최적화 실행",
	Long: `최적화 백엔드에 요청을 보내고 결과를 정규화하여 저장합니다.

순서:
1. 입력 검증 (티커 2개 이상, 비중 합 1.0 ± 0.01)
2. 백엔드 연결 확인 (HEALTH_URLS)
3. 대상 순서대로 요청 (service → gateway)
4. 응답 정규화 후 저장 (lastOptimizationResult)

--portfolio 를 주면 저장된 보유 종목(2개 이상)의 주식 수 비중을 사용합니다.

Example:
  go run ./cmd/quanta optimize --tickers AAPL,GOOGL,MSFT
  go run ./cmd/quanta optimize --tickers 005930,000660 --weights 0.6,0.4 --method classical
  go run ./cmd/quanta optimize --portfolio --risk 0.3`,
	RunE: runOptimize,
}

var (
	optTickers   string
	optWeights   string
	optRisk      float64
	optMethod    string
	optPeriod    string
	optPrecision int
	optReps      int
	optPortfolio bool
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	// Flags
	optimizeCmd.Flags().StringVar(&optTickers, "tickers", "", "쉼표 구분 티커 (예: AAPL,GOOGL)")
	optimizeCmd.Flags().StringVar(&optWeights, "weights", "", "쉼표 구분 초기 비중 (생략 시 균등)")
	optimizeCmd.Flags().Float64Var(&optRisk, "risk", workflow.DefaultRiskFactor, "위험 선호도 0..1")
	optimizeCmd.Flags().StringVar(&optMethod, "method", string(contracts.MethodQuantum), "quantum | classical")
	optimizeCmd.Flags().StringVar(&optPeriod, "period", string(contracts.Period1Year), "1mo | 3mo | 6mo | 1y")
	optimizeCmd.Flags().IntVar(&optPrecision, "precision", 0, "양자 정밀도 (0 = 백엔드 기본값)")
	optimizeCmd.Flags().IntVar(&optReps, "reps", 1, "양자 회로 반복 수 (1 = fast mode)")
	optimizeCmd.Flags().BoolVar(&optPortfolio, "portfolio", false, "저장된 포트폴리오 사용")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := workflow.Options{
		UsePortfolio: optPortfolio,
		Tickers:      validation.ParseTickers(optTickers),
		Weights:      validation.ParseWeights(optWeights),
		RiskFactor:   optRisk,
		Method:       contracts.Method(optMethod),
		Period:       contracts.Period(optPeriod),
		Precision:    optPrecision,
		Reps:         optReps,
	}
	if optWeights != "" && len(opts.Weights) == 0 {
		return fmt.Errorf("could not parse --weights %q", optWeights)
	}

	if !jsonOutput {
		PrintInfo(fmt.Sprintf("Optimizing (%s)...", optMethod))
	}

	result, err := a.optimizer.Run(ctx, opts)
	if result == nil {
		if !jsonOutput {
			PrintError(err.Error())
		}
		return err
	}

	if jsonOutput {
		if encErr := printJSON(result); encErr != nil {
			return encErr
		}
	} else {
		PrintResult(result)
	}

	if err != nil {
		PrintWarning("Result not saved: " + err.Error())
		return err
	}
	if !jsonOutput {
		PrintSuccess("Result saved")
	}
	return nil
}
