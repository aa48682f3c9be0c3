package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CageChen/pathquery/internal/report"
)

func newReportCommand(opts *options) *cobra.Command {
	var (
		ancestor string
		asHTML   bool
		width    int
	)

	cmd := &cobra.Command{
		Use:   "report <root> <suffix>",
		Short: "Render a find query as a report",
		Long: `Run the same query as 'find' and render the matches grouped by directory.
The report is rendered for the terminal, or as HTML with --html.`,
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

			md := report.Build(report.Query{Root: root, Suffix: args[1], Ancestor: ancestor}, files)
			out := cmd.OutOrStdout()

			if asHTML {
				rendered, err := report.NewRenderer().HTML(md)
				if err != nil {
					return fmt.Errorf("rendering report: %w", err)
				}
				_, err = fmt.Fprint(out, rendered.HTML)
				return err
			}

			text, err := report.Terminal(md, width, opts.printer(cmd).Styled())
			if err != nil {
				return fmt.Errorf("rendering report: %w", err)
			}
			_, err = fmt.Fprint(out, text)
			return err
		},
	}

	cmd.Flags().StringVarP(&ancestor, "ancestor", "a", "", "only include entries below a directory with this name")
	cmd.Flags().BoolVar(&asHTML, "html", false, "render HTML instead of terminal output")
	cmd.Flags().IntVar(&width, "width", 100, "word wrap width for terminal output")
	return cmd
}
