package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"banshee/internal/codec"
	"banshee/internal/config"
	"banshee/internal/encoding"
	"banshee/internal/transaction"
)

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var nameFlag string
	var hidden bool

	cmd := &cobra.Command{
		Use:   "encode <file|dir>...",
		Short: "Encode files into a target format",
		Long: "Encode queues one encode transaction covering every file given. Directories are\n" +
			"expanded to the files inside them that match import.extensions. Outputs are\n" +
			"written to paths.scratch_dir.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var format codec.Format
			if strings.TrimSpace(formatFlag) != "" {
				parsed, err := codec.ParseFormat(formatFlag)
				if err != nil {
					return err
				}
				format = parsed
			}

			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			paths, err := expandSources(a.Config(), args)
			if err != nil {
				_ = a.Shutdown(cmd.Context())
				return err
			}
			if err := requirePreflight(cmd.Context(), a); err != nil {
				_ = a.Shutdown(cmd.Context())
				return err
			}

			opts := []encoding.Option{encoding.WithShowStatus(!hidden)}
			if name := strings.TrimSpace(nameFlag); name != "" {
				opts = append(opts, encoding.WithName(name))
			}
			tx, err := a.NewEncode(format, paths, opts...)
			if err != nil {
				_ = a.Shutdown(cmd.Context())
				return err
			}
			return runTransactions(cmd.Context(), a, cmd.OutOrStdout(), tx)
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Target format (defaults to encoding.default_format)")
	cmd.Flags().StringVar(&nameFlag, "name", "", "Display name for the transaction")
	cmd.Flags().BoolVar(&hidden, "quiet", false, "Do not show the transaction in the live status line")
	return cmd
}

// expandSources resolves each argument to files. Directories contribute their
// direct children with a configured media extension, in name order.
func expandSources(cfg *config.Config, args []string) ([]string, error) {
	allowed := make(map[string]struct{}, len(cfg.Import.Extensions))
	for _, ext := range cfg.Import.Extensions {
		allowed[ext] = struct{}{}
	}

	var paths []string
	for _, arg := range args {
		path, err := config.ExpandPath(arg)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("inspect %q: %w", path, err)
		}
		if !info.IsDir() {
			paths = append(paths, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", path, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if _, ok := allowed[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
				paths = append(paths, filepath.Join(path, entry.Name()))
			}
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no media files found in %s", strings.Join(args, ", "))
	}
	return paths, nil
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	var noProbe bool

	cmd := &cobra.Command{
		Use:   "import [dir]...",
		Short: "Scan directories into the library",
		Long:  "Import queues one import transaction per directory (default paths.library_dir).",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if noProbe {
				cfg.Import.ProbeDurations = false
			}
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			if err := requirePreflight(cmd.Context(), a); err != nil {
				_ = a.Shutdown(cmd.Context())
				return err
			}

			roots := args
			if len(roots) == 0 {
				roots = []string{""}
			}
			txs := make([]transaction.Transaction, 0, len(roots))
			for _, root := range roots {
				if root != "" {
					if root, err = config.ExpandPath(root); err != nil {
						_ = a.Shutdown(cmd.Context())
						return err
					}
				}
				tx, err := a.NewImport(root)
				if err != nil {
					_ = a.Shutdown(cmd.Context())
					return err
				}
				txs = append(txs, tx)
			}
			return runTransactions(cmd.Context(), a, cmd.OutOrStdout(), txs...)
		},
	}

	cmd.Flags().BoolVar(&noProbe, "no-probe", false, "Skip ffprobe and derive names from paths only")
	return cmd
}
