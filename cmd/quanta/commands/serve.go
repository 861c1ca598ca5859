package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/quantafolio/internal/api"
	"github.com/wonny/quantafolio/internal/api/handlers"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "브리지 서버 시작",
	Long: `저장된 결과와 설정을 다른 화면에 제공하는 HTTP 서버를 시작합니다.
연결 모니터와 환율 갱신 스케줄러도 함께 실행됩니다.

Endpoints:
  GET    /health              - Health check
  GET    /api/results/latest  - 마지막 최적화 결과 (없으면 404)
  DELETE /api/results/latest  - 결과 삭제
  GET    /api/portfolio       - 보유 종목
  PUT    /api/portfolio       - 보유 종목 저장
  GET    /api/settings        - 사용자 설정
  PUT    /api/settings        - 설정 부분 변경
  GET    /api/status          - 백엔드 연결 상태 + 작업 통계
  POST   /api/optimize        - 최적화 실행
  GET    /metrics             - Prometheus
  GET    /ws/results          - 결과 실시간 구독 (websocket)

Example:
  go run ./cmd/quanta serve
  go run ./cmd/quanta serve --port 9000 --no-scheduler`,
	RunE: runServe,
}

var (
	servePort        string
	serveNoScheduler bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "서버 포트 (기본값 PORT)")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "주기 작업 비활성화")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Quantafolio Bridge Server ===")

	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if servePort != "" {
		a.cfg.Port = servePort
	}

	h := api.Handlers{
		Results:   handlers.NewResultHandler(a.results, a.log),
		Portfolio: handlers.NewPortfolioHandler(a.portfolios, a.log),
		Settings:  handlers.NewSettingsHandler(a.settings, a.log),
		Optimize:  handlers.NewOptimizeHandler(a.optimizer, a.log),
	}
	if a.metrics != nil {
		h.Metrics = a.metrics.Handler()
	}

	hub := handlers.NewResultHub(a.results, a.log)
	defer hub.Close()
	h.Hub = hub

	var jobStats handlers.JobStatsSource
	if !serveNoScheduler {
		sched, err := a.newScheduler()
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		jobStats = sched

		// first status without waiting a full interval
		go a.monitor.Check(context.Background())
	}
	h.Status = handlers.NewStatusHandler(a.monitor, jobStats, a.log)

	server := api.New(a.cfg, a.log, api.NewRouter(h, a.log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal or a failed listener
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	a.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
