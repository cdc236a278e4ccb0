package terminal

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/guregu/null.v3"

	"ui_automation/domain/entities"
	"ui_automation/infrastructure/config"
	"ui_automation/infrastructure/logging"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	descriptors   string
	html          string
	url           string
	driver        string
	timeout       time.Duration
	retryInterval time.Duration
	visibility    string
	safely        bool
	logLevel      string
}

var exampleForLocateCmd = `ui_automation locate save --html login.html --descriptors components.yaml
ui_automation locate field --url https://example.com --driver playwright --condition "[@disabled]"
`

// NewRootCmd - creates the command tree
func NewRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "ui_automation",
		Short:         "locate declared UI components in a web page",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.descriptors, "descriptors", "", "YAML descriptor table (default components.yaml, env LOCATOR_DESCRIPTORS)")
	pf.StringVar(&flags.html, "html", "", "local HTML document to open")
	pf.StringVar(&flags.url, "url", "", "URL to open")
	pf.StringVar(&flags.driver, "driver", "", "browser backend: memory, playwright or selenium (env BROWSER_DRIVER)")
	pf.DurationVar(&flags.timeout, "timeout", entities.DefaultTimeout, "how long to wait for elements")
	pf.DurationVar(&flags.retryInterval, "retry-interval", entities.DefaultRetryInterval, "delay between two lookups")
	pf.StringVar(&flags.visibility, "visibility", "", "visible, hidden or any")
	pf.BoolVar(&flags.safely, "safely", false, "report not-found as an empty result instead of an error")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (env LOG_LEVEL)")

	rootCmd.AddCommand(
		newQueryCmd(flags, entities.QueryLocate, "locate", "print the first element of a component"),
		newQueryCmd(flags, entities.QueryLocateAll, "locate-all", "print every element of a component"),
		newQueryCmd(flags, entities.QueryIsAbsent, "absent", "wait until a component is gone"),
		newComponentsCmd(flags),
		newReplCmd(flags),
	)
	return rootCmd
}

func newQueryCmd(flags *globalFlags, kind entities.QueryKind, use, short string) *cobra.Command {
	var condition string
	cmd := &cobra.Command{
		Use:     use + " <component>",
		Short:   short,
		Example: exampleForLocateCmd,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := flags.terminal(cmd)
			if err != nil {
				return err
			}
			defer t.Close()

			return t.Query(cmd.Context(), entities.Query{
				Kind:      kind,
				Component: args[0],
				Condition: condition,
			})
		},
	}
	if kind != entities.QueryIsAbsent {
		cmd.Flags().StringVar(&condition, "condition", "", "XPath predicate appended to the final selector, e.g. [@disabled]")
	}
	return cmd
}

func newComponentsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "list the descriptor table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := flags.terminal(cmd)
			if err != nil {
				return err
			}
			defer t.Close()

			t.Components()
			return nil
		},
	}
}

func newReplCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "run queries interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := flags.terminal(cmd)
			if err != nil {
				return err
			}
			defer t.Close()

			return t.Run(cmd.Context())
		},
	}
}

// config merges the flags that were set on top of the environment.
func (f *globalFlags) config(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	changed := cmd.Flags().Changed
	var overlay config.Config
	if changed("descriptors") {
		overlay.Descriptors = null.StringFrom(f.descriptors)
	}
	if changed("driver") {
		if _, err := config.ParseDriver(f.driver); err != nil {
			return config.Config{}, err
		}
		overlay.Driver = null.StringFrom(f.driver)
	}
	if changed("log-level") {
		overlay.LogLevel = null.StringFrom(f.logLevel)
	}
	return cfg.Apply(overlay), nil
}

// options are the caller search options: they override component
// declarations, so only changed flags are set.
func (f *globalFlags) options(cmd *cobra.Command) (entities.SearchOptions, error) {
	changed := cmd.Flags().Changed
	var opts entities.SearchOptions
	if changed("timeout") {
		if f.timeout < 0 {
			return opts, fmt.Errorf("--timeout must not be negative")
		}
		opts = opts.WithTimeout(f.timeout)
	}
	if changed("retry-interval") {
		if f.retryInterval <= 0 {
			return opts, fmt.Errorf("--retry-interval must be positive")
		}
		opts = opts.WithRetryInterval(f.retryInterval)
	}
	if changed("visibility") {
		v, err := entities.ParseVisibility(f.visibility)
		if err != nil {
			return opts, err
		}
		opts.Visibility = v
	}
	if changed("safely") {
		opts = opts.WithSafely(f.safely)
	}
	return opts, nil
}

func (f *globalFlags) terminal(cmd *cobra.Command) (*TerminalInterface, error) {
	cfg, err := f.config(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := f.options(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewLogger(cfg.LogLevel.String, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	start, err := StartURL(f.url, f.html)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return NewTerminalInterface(ctx, cfg, logger, opts, start, cmd.InOrStdin(), cmd.OutOrStdout())
}
