package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"ui_automation/application/inspector"
	"ui_automation/application/locator"
	"ui_automation/application/registry"
	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
	"ui_automation/infrastructure/browser"
	"ui_automation/infrastructure/config"
	"ui_automation/infrastructure/storage"
	"ui_automation/infrastructure/validation"
)

// TerminalInterface wires the engine to a browser session and prints query
// results.
type TerminalInterface struct {
	inspector *inspector.Inspector
	registry  *registry.Registry
	session   interfaces.Session
	logger    *logrus.Logger
	options   entities.SearchOptions
	reader    *bufio.Reader
	out       io.Writer
}

// NewTerminalInterface - loads the descriptor table, opens the configured
// browser session and, when given, the start document
func NewTerminalInterface(ctx context.Context, cfg config.Config, logger *logrus.Logger, options entities.SearchOptions, start string, in io.Reader, out io.Writer) (*TerminalInterface, error) {
	store := storage.NewDescriptorStore(cfg.Descriptors.String)
	descriptors, err := store.Load()
	if err != nil {
		return nil, err
	}
	reg, err := registry.New(validation.NewDescriptorValidator(logger), descriptors...)
	if err != nil {
		return nil, fmt.Errorf("invalid descriptor table %s: %w", store.Path(), err)
	}
	logger.WithFields(logrus.Fields{
		"file":       store.Path(),
		"components": len(descriptors),
	}).Debug("descriptor table loaded")

	session, err := openSession(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	if start != "" {
		if err := session.Navigate(ctx, start); err != nil {
			session.Close()
			return nil, err
		}
	}

	engine := locator.NewEngine(session, reg,
		locator.WithDefaults(cfg.SearchOptions()),
		locator.WithLogger(logger),
	)

	return &TerminalInterface{
		inspector: inspector.NewInspector(engine, logger),
		registry:  reg,
		session:   session,
		logger:    logger,
		options:   options,
		reader:    bufio.NewReader(in),
		out:       out,
	}, nil
}

func openSession(cfg config.Config, logger *logrus.Logger) (interfaces.Session, error) {
	var (
		session interfaces.Session
		err     error
	)
	switch cfg.BrowserDriver() {
	case config.DriverPlaywright:
		session, err = browser.NewPlaywrightSession(cfg.Headless.Bool, logger)
	case config.DriverSelenium:
		session, err = browser.NewSeleniumSession(browser.SeleniumOptions{
			DriverPath:   cfg.DriverPath.String,
			ChromeBinary: cfg.ChromeBinary.String,
			Headless:     cfg.Headless.Bool,
		}, logger)
	default:
		session, err = browser.NewDOMSession("", logger)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// StartURL - turns the --url and --html flags into a location the session
// can navigate to
func StartURL(url, htmlFile string) (string, error) {
	if url != "" && htmlFile != "" {
		return "", fmt.Errorf("--url and --html are mutually exclusive")
	}
	if htmlFile == "" {
		return url, nil
	}
	abs, err := filepath.Abs(htmlFile)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// Query - runs one query and prints its result
func (t *TerminalInterface) Query(ctx context.Context, q entities.Query) error {
	q.Options = t.options.Apply(q.Options)
	result, err := t.inspector.Run(ctx, q)
	printResult(t.out, result)
	return err
}

// Run - reads queries from the input until it ends or quit is typed
func (t *TerminalInterface) Run(ctx context.Context) error {
	fmt.Fprintln(t.out, "UI Locator")
	fmt.Fprintln(t.out, "==========")
	fmt.Fprintln(t.out, "Type 'help' for commands, or 'quit' to exit")
	fmt.Fprintln(t.out)

	for {
		fmt.Fprint(t.out, "> ")
		input, err := t.reader.ReadString('\n')
		if err == io.EOF && input == "" {
			fmt.Fprintln(t.out)
			return nil
		}
		if err != nil && err != io.EOF {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		command, arg, _ := strings.Cut(input, " ")
		arg = strings.TrimSpace(arg)
		switch command {
		case "quit", "exit", "q":
			fmt.Fprintln(t.out, "Bye!")
			return nil
		case "help":
			printHelp(t.out)
		case "open":
			if arg == "" {
				printError(t.out, fmt.Errorf("open needs a url or a path"))
				continue
			}
			if err := t.session.Navigate(ctx, arg); err != nil {
				printError(t.out, err)
			}
		case "components":
			printComponents(t.out, t.registry.Components())
		case "history":
			printHistory(t.out, t.inspector.History())
		default:
			q, err := inspector.ParseQuery(input)
			if err != nil {
				printError(t.out, err)
				continue
			}
			// Failures are already printed with the result.
			_ = t.Query(ctx, q)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Components - prints the descriptor table
func (t *TerminalInterface) Components() {
	printComponents(t.out, t.registry.Components())
}

func (t *TerminalInterface) Close() error {
	return t.session.Close()
}
