// Package cli contains the pathquery commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/CageChen/pathquery/internal/config"
	"github.com/CageChen/pathquery/internal/display"
	mfs "github.com/CageChen/pathquery/internal/fs"
	"github.com/CageChen/pathquery/internal/logging"
	"github.com/CageChen/pathquery/internal/pathquery"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// ExitError ends the process with Code. Silent errors print nothing.
type ExitError struct {
	Code   int
	Silent bool
	Err    error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// errAbsent reports a query whose answer is an absent value.
var errAbsent = &ExitError{Code: 2, Silent: true}

type options struct {
	cfgFile string
	verbose bool
	json    bool
	gitRef  string

	cfg    *config.Config
	logger *log.Logger
}

// NewRootCommand creates and returns the root cobra command for pathquery
func NewRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "pathquery",
		Short: "Query directory trees by suffix, ancestor, child and parent",
		Long: `pathquery answers read-only questions about a directory tree:
which entries end with a suffix, which of them sit below a directory with a
given name, what the nearest such ancestor is, and what a directory contains.

Queries run against the working tree or, with --git-ref, against the tree of
a git commit. 'pathquery serve' exposes the same queries over HTTP.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.config/pathquery/config.yaml)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&opts.json, "json", false, "print results as JSON")
	flags.StringVar(&opts.gitRef, "git-ref", "", "query the tree of this git ref instead of the working tree")

	cmd.AddCommand(
		newFindCommand(opts),
		newAncestorCommand(opts),
		newChildCommand(opts),
		newChildrenCommand(opts),
		newParentCommand(opts),
		newReportCommand(opts),
		newServeCommand(opts),
		newRootsCommand(opts),
	)

	return cmd
}

func (o *options) load() error {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return err
	}
	o.cfg = cfg

	level := cfg.LogLevel
	if o.verbose {
		level = "debug"
	}
	o.logger = logging.New("pathquery", level)
	o.logger.Debug("config loaded", "file", cfg.GetConfigFilePath(), "roots", len(cfg.Roots))
	return nil
}

func (o *options) printer(cmd *cobra.Command) *display.Printer {
	return display.NewPrinter(cmd.OutOrStdout(), o.json)
}

// querier returns a Querier for p and the path to query it with. Without a
// git ref the local filesystem is used as is; with one, the tree of the ref in
// the repository containing p is mounted at the repository's location.
func (o *options) querier(p string) (*pathquery.Querier, string, error) {
	if o.gitRef == "" {
		return pathquery.New(mfs.NewLocalFS("")), p, nil
	}

	// Make p absolute without cleaning it so ".." segments keep their meaning.
	abs := p
	if !filepath.IsAbs(p) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		abs = wd + string(filepath.Separator) + p
	}

	local := mfs.NewLocalFS("")
	start := ""
	for _, candidate := range append([]string{abs}, pathquery.Ancestors(abs)...) {
		if mfs.IsDir(local, candidate) {
			start = candidate
			break
		}
	}
	repo, err := mfs.RepoRoot(start)
	if err != nil {
		return nil, "", fmt.Errorf("locating git repository for %s: %w", p, err)
	}

	o.logger.Debug("querying git tree", "repo", repo, "ref", o.gitRef)
	return pathquery.New(mfs.Mount(repo, mfs.NewGitFS(repo, o.gitRef))), abs, nil
}

func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Silent {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := fang.Execute(
		context.Background(),
		NewRootCommand(),
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	)
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
