package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// probeCmd represents the probe command
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "백엔드 연결 확인",
	Long: `HEALTH_URLS 를 순서대로 호출하여 첫 번째로 응답한 주소를 출력합니다.

PROBE_STRICT=true 이면 2xx 만 정상으로 봅니다.
기본값은 2xx 이거나 JSON 본문이 있는 응답이면 정상입니다.

Example:
  go run ./cmd/quanta probe
  go run ./cmd/quanta probe --timeout 2s`,
	RunE: runProbe,
}

var probeTimeout time.Duration

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 0, "URL 별 타임아웃 (0 = PROBE_TIMEOUT)")
}

func runProbe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	timeout := a.cfg.Backend.ProbeTimeout
	if probeTimeout > 0 {
		timeout = probeTimeout
	}

	status, err := a.prober.Require(ctx, a.cfg.Backend.HealthURLs, timeout)
	if jsonOutput {
		if encErr := printJSON(status); encErr != nil {
			return encErr
		}
		return err
	}

	if err != nil {
		PrintError(fmt.Sprintf("Backend unreachable (%d urls): %s", len(a.cfg.Backend.HealthURLs), status.ErrorMessage()))
		return err
	}

	PrintSuccess(fmt.Sprintf("Backend reachable via %s", status.URL))
	return nil
}
