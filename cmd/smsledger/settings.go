package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change monitoring settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSettings(cmd, func(s model.MonitorSettings) (model.MonitorSettings, bool, error) {
				return s, false, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Long: `Change one setting. Keys:
  popup_duration      seconds a popup stays on screen (5-300)
  minimum_amount      ignore transactions below this amount
  minimum_confidence  ignore extractions below this confidence (0-1)
  currency            default currency code
  use_overlay         show popups (true) or notifications only (false)
  keyword_filters     comma-separated keywords a message must contain
  exclude_keywords    comma-separated keywords that reject a message`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(cmd, func(s model.MonitorSettings) (model.MonitorSettings, bool, error) {
				err := applySetting(&s, args[0], args[1])
				return s, true, err
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "enable",
		Short: "Enable monitoring (requests message access)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSettings(cmd, func(s model.MonitorSettings) (model.MonitorSettings, bool, error) {
				s.Enabled = true
				return s, true, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "disable",
		Short: "Disable monitoring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSettings(cmd, func(s model.MonitorSettings) (model.MonitorSettings, bool, error) {
				s.Enabled = false
				return s, true, nil
			})
		},
	})

	cmd.AddCommand(trustCmd(), categoryCmd())
	return cmd
}

func trustCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trust",
		Short: "Manage senders that skip the content check",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <sender>...",
		Short: "Trust one or more senders",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(cmd, func(s model.MonitorSettings) (model.MonitorSettings, bool, error) {
				s.TrustedSenders = append(s.TrustedSenders, args...)
				return s, true, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <sender>...",
		Short: "Stop trusting senders",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(cmd, func(s model.MonitorSettings) (model.MonitorSettings, bool, error) {
				s.TrustedSenders = removeFold(s.TrustedSenders, args)
				return s, true, nil
			})
		},
	})

	return cmd
}

func categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage automatic merchant categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <merchant> <category-id>",
		Short: "Assign a category to a merchant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(cmd, func(s model.MonitorSettings) (model.MonitorSettings, bool, error) {
				deleteFold(s.AutoCategories, args[0])
				s.AutoCategories[strings.TrimSpace(args[0])] = strings.TrimSpace(args[1])
				return s, true, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <merchant>",
		Short: "Remove a merchant's automatic category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(cmd, func(s model.MonitorSettings) (model.MonitorSettings, bool, error) {
				if !deleteFold(s.AutoCategories, args[0]) {
					return s, false, fmt.Errorf("%w: no category for %q", common.ErrNotFound, args[0])
				}
				return s, true, nil
			})
		},
	})

	return cmd
}

// withSettings loads settings, applies change and saves the result when
// change reports a modification. The final settings are printed.
func withSettings(cmd *cobra.Command, change func(model.MonitorSettings) (model.MonitorSettings, bool, error)) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	a.settings.SetReconciler(enableCheck{app: a})

	current, err := a.settings.GetSettings(ctx)
	if err != nil {
		return err
	}
	if current.AutoCategories == nil {
		current.AutoCategories = map[string]string{}
	}

	next, modified, err := change(current)
	if err != nil {
		return err
	}
	if modified {
		next, err = a.settings.UpdateSettings(ctx, next)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Settings saved"))
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderSettings(next))
	return nil
}

// enableCheck verifies that monitoring could start when it is enabled
// outside of a running watcher.
type enableCheck struct{ app *app }

func (e enableCheck) StartMonitoring(ctx context.Context) error {
	if !e.app.cfg.Identity().Complete() {
		return fmt.Errorf("%w: set backend.user_id and backend.account_id", common.ErrMissingConfig)
	}
	status, err := e.app.settings.RequestSMSPermission(ctx)
	if err != nil {
		return err
	}
	if status != model.PermissionGranted {
		return fmt.Errorf("%w: message access is %s", common.ErrPermissionDenied, status)
	}
	return nil
}

func (enableCheck) StopMonitoring(context.Context) error { return nil }

func applySetting(s *model.MonitorSettings, key, value string) error {
	value = strings.TrimSpace(value)
	var err error

	switch strings.ReplaceAll(strings.ToLower(key), "-", "_") {
	case "popup_duration", "popup_duration_seconds":
		s.PopupDurationSeconds, err = strconv.Atoi(value)
	case "minimum_amount":
		s.MinimumAmount, err = strconv.ParseFloat(value, 64)
	case "minimum_confidence":
		s.MinimumConfidence, err = strconv.ParseFloat(value, 64)
	case "currency":
		s.Currency = value
	case "use_overlay":
		s.UseOverlay, err = strconv.ParseBool(value)
	case "keyword_filters":
		s.KeywordFilters = splitList(value)
	case "exclude_keywords":
		s.ExcludeKeywords = splitList(value)
	default:
		return fmt.Errorf("%w: unknown setting %q", common.ErrInvalidInput, key)
	}

	if err != nil {
		return fmt.Errorf("%w: %s: %w", common.ErrInvalidInput, key, err)
	}
	return nil
}

func splitList(value string) []string {
	if value == "" {
		return []string{}
	}
	return strings.Split(value, ",")
}

func removeFold(values, remove []string) []string {
	out := values[:0:0]
	for _, v := range values {
		drop := false
		for _, r := range remove {
			if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(r)) {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, v)
		}
	}
	return out
}

func deleteFold(m map[string]string, key string) bool {
	found := false
	for k := range m {
		if strings.EqualFold(k, strings.TrimSpace(key)) {
			delete(m, k)
			found = true
		}
	}
	return found
}
