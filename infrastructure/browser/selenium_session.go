package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

var _ interfaces.Session = &SeleniumSession{}

const chromeDriverPort = 9515

var seleniumStaleMarkers = []string{
	"stale element reference",
	"no such element",
}

// SeleniumOptions configures the ChromeDriver backed session.
type SeleniumOptions struct {
	// DriverPath is the chromedriver executable, searched for when empty.
	DriverPath string
	// ChromeBinary is the browser executable, searched for when empty.
	ChromeBinary string
	Headless     bool
}

type seleniumElement struct {
	id string
	we selenium.WebElement
}

func (e *seleniumElement) ID() string { return e.id }

// SeleniumSession is a Session driving Chrome through ChromeDriver.
type SeleniumSession struct {
	wd      selenium.WebDriver
	service *selenium.Service
	logger  logrus.FieldLogger
}

// findChromeDriver - finds ChromeDriver executable path
func findChromeDriver(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured, nil
		}
	}

	commonPaths := []string{
		"/usr/local/bin/chromedriver",
		"/usr/bin/chromedriver",
		"/opt/homebrew/bin/chromedriver",
		filepath.Join(os.Getenv("HOME"), "bin", "chromedriver"),
	}

	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if path, err := exec.LookPath("chromedriver"); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("chromedriver not found. Please install it or set BROWSER_DRIVER_PATH environment variable")
}

// findChromeBinary - finds Chrome/Chromium browser executable path
func findChromeBinary(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}

	chromePaths := []string{
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
	}

	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	return ""
}

// NewSeleniumSession - starts ChromeDriver and opens a browser session
func NewSeleniumSession(opts SeleniumOptions, logger logrus.FieldLogger) (*SeleniumSession, error) {
	driverPath, err := findChromeDriver(opts.DriverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find chromedriver: %w", err)
	}
	logger.Infof("Using ChromeDriver at: %s", driverPath)

	chromeBinary := findChromeBinary(opts.ChromeBinary)
	if chromeBinary != "" {
		logger.Infof("Using Chrome binary at: %s", chromeBinary)
	}

	service, err := selenium.NewChromeDriverService(driverPath, chromeDriverPort)
	if err != nil {
		return nil, fmt.Errorf("failed to start chromedriver: %w", err)
	}

	caps := selenium.Capabilities{
		"browserName": "chrome",
	}

	chromeCaps := chrome.Capabilities{
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	}
	if opts.Headless {
		chromeCaps.Args = append(chromeCaps.Args, "--headless=new")
	}
	if chromeBinary != "" {
		chromeCaps.Path = chromeBinary
	}
	caps.AddChrome(chromeCaps)

	wd, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", chromeDriverPort))
	if err != nil {
		_ = service.Stop()
		if strings.Contains(err.Error(), "cannot find Chrome binary") {
			return nil, fmt.Errorf("failed to create webdriver: Chrome browser not found. Please install Google Chrome or set CHROME_BINARY_PATH environment variable. Error: %w", err)
		}
		return nil, fmt.Errorf("failed to create webdriver: %w", err)
	}

	return &SeleniumSession{
		wd:      wd,
		service: service,
		logger:  logger,
	}, nil
}

// Navigate - navigates browser to specified URL
func (s *SeleniumSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Infof("Navigating to: %s", url)
	if err := s.wd.Get(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *SeleniumSession) FindElements(ctx context.Context, root interfaces.Element, by interfaces.By, selector string) ([]interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var strategy string
	switch by {
	case interfaces.ByXPath:
		strategy = selenium.ByXPATH
	case interfaces.ByCSS:
		strategy = selenium.ByCSSSelector
	default:
		return nil, fmt.Errorf("unsupported selector kind %q", by)
	}

	var (
		found []selenium.WebElement
		err   error
	)
	if root == nil {
		found, err = s.wd.FindElements(strategy, selector)
	} else {
		e, castErr := s.element(root)
		if castErr != nil {
			return nil, castErr
		}
		found, err = e.we.FindElements(strategy, selector)
	}
	if err != nil {
		// An empty result is reported as "no such element" by some drivers.
		if strings.Contains(err.Error(), "no such element") {
			return []interfaces.Element{}, nil
		}
		return nil, staleError(err, seleniumStaleMarkers[0])
	}
	return wrapWebElements(found), nil
}

func (s *SeleniumSession) IsDisplayed(ctx context.Context, el interfaces.Element) (bool, error) {
	e, err := s.element(el)
	if err != nil {
		return false, err
	}
	displayed, err := e.we.IsDisplayed()
	return displayed, staleError(err, seleniumStaleMarkers...)
}

func (s *SeleniumSession) IsAttached(ctx context.Context, el interfaces.Element) (bool, error) {
	e, err := s.element(el)
	if err != nil {
		return false, err
	}
	connected, err := s.wd.ExecuteScript(isConnectedScript, []interface{}{e.we})
	if err = staleError(err, seleniumStaleMarkers...); err != nil {
		if errors.Is(err, interfaces.ErrStaleElement) {
			return false, nil
		}
		return false, err
	}
	attached, _ := connected.(bool)
	return attached, nil
}

func (s *SeleniumSession) Attribute(ctx context.Context, el interfaces.Element, name string) (string, error) {
	e, err := s.element(el)
	if err != nil {
		return "", err
	}
	value, err := e.we.GetAttribute(name)
	if err != nil {
		// tebeka/selenium reports a missing attribute as an error.
		if strings.Contains(err.Error(), "nil return value") {
			return "", nil
		}
		return "", staleError(err, seleniumStaleMarkers...)
	}
	return value, nil
}

func (s *SeleniumSession) scriptArgs(args []interface{}) ([]interface{}, error) {
	converted := make([]interface{}, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			converted = append(converted, nil)
		case interfaces.Element:
			e, err := s.element(v)
			if err != nil {
				return nil, err
			}
			converted = append(converted, e.we)
		default:
			converted = append(converted, v)
		}
	}
	return converted, nil
}

func (s *SeleniumSession) ExecuteScript(ctx context.Context, script string, args ...interface{}) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	converted, err := s.scriptArgs(args)
	if err != nil {
		return nil, err
	}
	result, err := s.wd.ExecuteScript(script, converted)
	if err != nil {
		return nil, staleError(fmt.Errorf("script failed: %w", err), seleniumStaleMarkers[0])
	}
	return result, nil
}

func (s *SeleniumSession) ExecuteScriptElements(ctx context.Context, script string, args ...interface{}) ([]interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	converted, err := s.scriptArgs(args)
	if err != nil {
		return nil, err
	}
	raw, err := s.wd.ExecuteScriptRaw(elementsScript(script), converted)
	if err != nil {
		return nil, staleError(fmt.Errorf("script failed: %w", err), seleniumStaleMarkers[0])
	}

	var reply struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("failed to decode script result: %w", err)
	}
	if len(reply.Value) == 0 || string(reply.Value) == "null" {
		return nil, nil
	}

	found, err := s.wd.DecodeElements(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode script elements: %w", err)
	}
	return wrapWebElements(found), nil
}

func (s *SeleniumSession) Describe(ctx context.Context, el interfaces.Element) (entities.PageElement, error) {
	e, err := s.element(el)
	if err != nil {
		return entities.PageElement{}, err
	}
	result, err := s.wd.ExecuteScript(describeScript, []interface{}{e.we})
	if err != nil {
		return entities.PageElement{}, staleError(fmt.Errorf("failed to describe element: %w", err), seleniumStaleMarkers[0])
	}
	m, ok := result.(map[string]interface{})
	if !ok {
		return entities.PageElement{}, fmt.Errorf("unexpected element description %T", result)
	}
	return pageElement(e.id, m), nil
}

func (s *SeleniumSession) element(el interfaces.Element) (*seleniumElement, error) {
	e, ok := el.(*seleniumElement)
	if !ok {
		return nil, fmt.Errorf("element %q does not belong to this session", el.ID())
	}
	return e, nil
}

func wrapWebElements(found []selenium.WebElement) []interfaces.Element {
	elements := make([]interfaces.Element, 0, len(found))
	for _, we := range found {
		elements = append(elements, &seleniumElement{id: uuid.NewString(), we: we})
	}
	return elements
}

// Close - closes browser and stops ChromeDriver service
func (s *SeleniumSession) Close() error {
	if s.wd != nil {
		if err := s.wd.Quit(); err != nil {
			s.logger.Warnf("Failed to quit webdriver: %v", err)
		}
	}
	if s.service != nil {
		return s.service.Stop()
	}
	return nil
}
