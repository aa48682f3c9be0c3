package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/CageChen/pathquery/internal/config"
)

func newRootsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roots",
		Short: "Manage the roots served by 'pathquery serve'",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured roots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.json {
				roots := opts.cfg.Roots
				if roots == nil {
					roots = []config.Root{}
				}
				return opts.printer(cmd).JSON(roots)
			}
			for i, r := range opts.cfg.Roots {
				line := fmt.Sprintf("[%d] %s -> %s", i, r.Alias, r.Path)
				if r.GitRef != "" {
					line += " (git ref: " + r.GitRef + ")"
				}
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
					return err
				}
			}
			return nil
		},
	})

	var alias string
	add := &cobra.Command{
		Use:   "add <path>",
		Short: "Add a root",
		Long:  `Add a directory to the served roots. With --git-ref the root serves the tree of that ref.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", args[0])
			}
			if err := opts.cfg.AddRoot(args[0], alias, opts.gitRef); err != nil {
				return err
			}
			if err := opts.cfg.Save(); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			return opts.printer(cmd).Notice("saved %d root(s) to %s", len(opts.cfg.Roots), opts.cfg.GetConfigFilePath())
		},
	}
	add.Flags().StringVar(&alias, "alias", "", "alias used in server paths (default: directory name)")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <index>",
		Short: "Remove a root by index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			if !opts.cfg.RemoveRootByIndex(index) {
				return fmt.Errorf("no root at index %d", index)
			}
			if err := opts.cfg.Save(); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			return opts.printer(cmd).Notice("saved %d root(s) to %s", len(opts.cfg.Roots), opts.cfg.GetConfigFilePath())
		},
	})

	return cmd
}
