package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"banshee/internal/notifications"
	"banshee/internal/preflight"
)

var errDoctorFailed = errors.New("required checks failed")

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var notify bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, external tools and notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg)
			fmt.Fprintln(out, "Checks:")
			for _, result := range results {
				fmt.Fprintln(out, renderStatusLine(result.Name, resultKind(result), result.Detail, colorize))
			}

			if notify {
				service := notifications.NewService(cfg)
				sendCtx, cancel := context.WithTimeout(cmd.Context(), cfg.NotifyTimeout())
				err := service.TestNotification(sendCtx)
				cancel()
				switch {
				case cfg.Notifications.NtfyTopic == "":
					fmt.Fprintln(out, renderStatusLine("Test notification", statusInfo, "ntfy_topic not set", colorize))
				case err != nil:
					fmt.Fprintln(out, renderStatusLine("Test notification", statusError, err.Error(), colorize))
				default:
					fmt.Fprintln(out, renderStatusLine("Test notification", statusOK, "sent", colorize))
				}
			}

			if _, blocked := preflight.FirstBlocking(results); blocked {
				return errDoctorFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&notify, "notify", false, "Send a test notification")
	return cmd
}

func resultKind(result preflight.Result) statusKind {
	switch {
	case result.Passed:
		return statusOK
	case result.Optional:
		return statusWarn
	default:
		return statusError
	}
}
