package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/quantafolio/internal/settings"
)

// settingsCmd represents the settings command
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "사용자 설정",
	Long: `언어, 테마, 자동 저장, 알림 설정을 조회하거나 변경합니다.

Keys:
  language       ko | en
  theme          light | dark
  autoSave       true | false
  notifications  true | false

Example:
  go run ./cmd/quanta settings show
  go run ./cmd/quanta settings set language en`,
}

var (
	settingsShowCmd = &cobra.Command{
		Use:   "show",
		Short: "설정 출력",
		RunE:  runSettingsShow,
	}

	settingsSetCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "설정 변경",
		Args:  cobra.ExactArgs(2),
		RunE:  runSettingsSet,
	}
)

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	printPreferences(a.settings.Get())
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	mutate, err := preferenceSetter(args[0], args[1])
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	prefs, err := a.settings.Update(ctx, mutate)
	if err != nil {
		return err
	}

	printPreferences(prefs)
	return nil
}

// preferenceSetter turns "key value" into an update func
func preferenceSetter(key, value string) (func(*settings.Preferences), error) {
	switch key {
	case settings.KeyLanguage:
		return func(p *settings.Preferences) { p.Language = strings.ToLower(value) }, nil
	case settings.KeyTheme:
		return func(p *settings.Preferences) { p.Theme = strings.ToLower(value) }, nil
	case settings.KeyAutoSave, settings.KeyNotifications:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false: %w", key, err)
		}
		if key == settings.KeyAutoSave {
			return func(p *settings.Preferences) { p.AutoSave = b }, nil
		}
		return func(p *settings.Preferences) { p.Notifications = b }, nil
	default:
		return nil, fmt.Errorf("unknown setting %q", key)
	}
}

func printPreferences(p settings.Preferences) {
	if jsonOutput {
		printJSON(p)
		return
	}
	PrintKeyValue(settings.KeyLanguage, p.Language, 13)
	PrintKeyValue(settings.KeyTheme, p.Theme, 13)
	PrintKeyValue(settings.KeyAutoSave, strconv.FormatBool(p.AutoSave), 13)
	PrintKeyValue(settings.KeyNotifications, strconv.FormatBool(p.Notifications), 13)
}
