// Package validation rejects malformed locate metadata before it reaches the
// locator engine.
package validation

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/xpath"
	"github.com/dop251/goja"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	xpathbuilder "ui_automation/application/xpath"
	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

var _ interfaces.DescriptorValidator = &DescriptorValidator{}

// DescriptorValidator checks component descriptors. Every problem of a
// descriptor is reported, not only the first.
type DescriptorValidator struct {
	logger logrus.FieldLogger
}

// NewDescriptorValidator - creates a validator
func NewDescriptorValidator(logger logrus.FieldLogger) *DescriptorValidator {
	return &DescriptorValidator{
		logger: logger,
	}
}

// Validate returns an error wrapping entities.ErrMalformedDescriptor for
// each problem found.
func (v *DescriptorValidator) Validate(d entities.ComponentDescriptor) error {
	var result *multierror.Error
	if strings.TrimSpace(d.Name) == "" {
		result = multierror.Append(result, malformed("component without name"))
	}
	if d.Parent != "" && d.Parent == d.Name {
		result = multierror.Append(result, malformed("component %q is its own parent", d.Name))
	}

	for i, layer := range d.Layers {
		step := fmt.Sprintf("layer %d", i+1)
		for _, err := range v.checkStep(layer.LocateDescriptor) {
			result = multierror.Append(result, fmt.Errorf("%s: %w", step, err))
		}
		if !layer.Resolver.Known() {
			result = multierror.Append(result, fmt.Errorf("%s: %w", step, malformed("unknown resolver %q", layer.Resolver)))
		}
	}
	for _, err := range v.checkStep(d.Final) {
		result = multierror.Append(result, fmt.Errorf("final step: %w", err))
	}

	if err := result.ErrorOrNil(); err != nil {
		v.logger.WithFields(logrus.Fields{
			"component": d.Name,
			"problems":  len(result.Errors),
		}).Warn("rejected component descriptor")
		return err
	}
	return nil
}

func (v *DescriptorValidator) checkStep(d entities.LocateDescriptor) []error {
	var errs []error
	if !d.Strategy.Known() {
		return []error{malformed("unknown strategy %q", d.Strategy)}
	}
	if d.Strategy.RequiresTerms() && len(nonBlank(d.Terms)) == 0 {
		errs = append(errs, malformed("strategy %q needs at least one term", d.Strategy))
	}
	if d.Strategy == entities.StrategyIndex && !d.Index.Valid {
		errs = append(errs, malformed("index strategy without index"))
	}
	if d.Strategy == entities.StrategyAttribute && strings.TrimSpace(d.Attribute) == "" {
		errs = append(errs, malformed("attribute strategy without attribute name"))
	}
	if d.Index.Valid && d.Index.Int64 < 0 {
		errs = append(errs, malformed("index %d is negative", d.Index.Int64))
	}
	if _, err := entities.ParseMatchMode(string(d.Match)); err != nil {
		errs = append(errs, malformed("%v", err))
	}
	if d.Visibility.Valid {
		if _, err := entities.ParseVisibility(string(d.Visibility.Visibility)); err != nil || d.Visibility.Visibility == "" {
			errs = append(errs, malformed("unknown visibility %q", d.Visibility.Visibility))
		}
	}
	if d.Timeout.Valid && d.Timeout.Duration < 0 {
		errs = append(errs, malformed("timeout %s is negative", d.Timeout.Duration))
	}
	if d.RetryInterval.Valid && d.RetryInterval.Duration < 0 {
		errs = append(errs, malformed("retry interval %s is negative", d.RetryInterval.Duration))
	}
	if !d.Scope.Known() {
		errs = append(errs, malformed("unknown scope %q", d.Scope))
	}

	if d.Strategy != entities.StrategyXPath {
		path := xpathbuilder.Path(d.OuterXPath, d.ElementXPath, "")
		if _, err := xpath.Compile(path); err != nil {
			errs = append(errs, malformed("invalid element xpath %q: %v", path, err))
		}
	}

	switch d.Strategy {
	case entities.StrategyXPath:
		for _, term := range nonBlank(d.Terms) {
			if _, err := xpath.Compile(term); err != nil {
				errs = append(errs, malformed("invalid xpath %q: %v", term, err))
			}
		}
	case entities.StrategyCSS:
		for _, term := range nonBlank(d.Terms) {
			if _, err := cascadia.Compile(term); err != nil {
				errs = append(errs, malformed("invalid css selector %q: %v", term, err))
			}
		}
	case entities.StrategyScript:
		source := "(function() {\n" + strings.Join(d.Terms, "\n") + "\n})"
		if _, err := goja.Compile("locator", source, false); err != nil {
			errs = append(errs, malformed("invalid script: %v", err))
		}
	}
	return errs
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", entities.ErrMalformedDescriptor, fmt.Sprintf(format, args...))
}

func nonBlank(terms []string) []string {
	var result []string
	for _, term := range terms {
		if strings.TrimSpace(term) != "" {
			result = append(result, term)
		}
	}
	return result
}
