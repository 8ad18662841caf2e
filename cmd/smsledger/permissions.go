package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

func permissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "Inspect and request platform permissions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the last known permission state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.settings.PermissionState(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderPermissions(state))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Probe the platform for current permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.settings.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderPermissions(state))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "request <sms|overlay>",
		Short:     "Request a permission",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"sms", "overlay"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			var status model.PermissionStatus
			switch args[0] {
			case "sms":
				status, err = a.settings.RequestSMSPermission(cmd.Context())
			case "overlay":
				status, err = a.settings.RequestOverlayPermission(cmd.Context())
			default:
				return fmt.Errorf("%w: unknown permission %q", common.ErrInvalidInput, args[0])
			}
			if err != nil {
				return err
			}

			if status == model.PermissionGranted {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s permission granted", args[0])))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning(fmt.Sprintf("%s permission is %s", args[0], status)))
			return nil
		},
	})

	return cmd
}
