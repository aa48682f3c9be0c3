package cli

import (
	"github.com/spf13/cobra"

	"github.com/CageChen/pathquery/internal/pathquery"
)

func newFindCommand(opts *options) *cobra.Command {
	var ancestor string

	cmd := &cobra.Command{
		Use:   "find <root> <suffix>",
		Short: "List entries below root whose name ends with suffix",
		Long: `List every entry below root, at any depth, whose name ends with the
literal string suffix. "r.txt" matches bar.txt; it is not an extension check.
With --ancestor only entries below a directory of that name are listed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, root, err := opts.querier(args[0])
			if err != nil {
				return err
			}

			var files []string
			if ancestor != "" {
				files, err = q.FindFilesWithAncestorAndSuffix(root, ancestor, args[1])
			} else {
				files, err = q.FindFilesWithSuffix(root, args[1])
			}
			if err != nil {
				return err
			}
			opts.logger.Debug("find", "root", root, "suffix", args[1], "ancestor", ancestor, "matches", len(files))
			return opts.printer(cmd).Paths(files)
		},
	}

	cmd.Flags().StringVarP(&ancestor, "ancestor", "a", "", "only list entries below a directory with this name")
	return cmd
}

func newAncestorCommand(opts *options) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "ancestor <path> <name>",
		Short: "Print the nearest directory above path called name",
		Long: `Print the nearest directory above path whose name is exactly name.
Only the path string is inspected; it does not need to exist. Exits with
status 2 when there is no such ancestor. With --check, print true or false.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if check {
				return opts.printer(cmd).Bool(pathquery.HasAncestor(args[0], args[1]))
			}
			ancestor, ok := pathquery.GetAncestor(args[0], args[1])
			if err := opts.printer(cmd).Optional(ancestor, ok); err != nil {
				return err
			}
			if !ok {
				return errAbsent
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "print whether the ancestor exists")
	return cmd
}

func newChildCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "child <dir> <name>",
		Short: "Print whether dir contains an entry called name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, dir, err := opts.querier(args[0])
			if err != nil {
				return err
			}
			return opts.printer(cmd).Bool(q.HasChild(dir, args[1]))
		},
	}
}

func newChildrenCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "children <dir>",
		Short: "List the immediate children of dir",
		Long:  `List the immediate children of dir. A missing path or a file lists nothing.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, dir, err := opts.querier(args[0])
			if err != nil {
				return err
			}
			return opts.printer(cmd).Paths(q.GetChildren(dir))
		},
	}
}

func newParentCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "parent <path>",
		Short: "Print the parent of path if it exists",
		Long:  `Print the parent directory of path. Exits with status 2 when the parent does not exist.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, p, err := opts.querier(args[0])
			if err != nil {
				return err
			}
			parent, ok := q.GetParent(p)
			if err := opts.printer(cmd).Optional(parent, ok); err != nil {
				return err
			}
			if !ok {
				return errAbsent
			}
			return nil
		},
	}
}
