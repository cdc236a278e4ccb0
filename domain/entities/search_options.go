package entities

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/guregu/null.v3"
)

const (
	DefaultTimeout       = 5 * time.Second
	DefaultRetryInterval = 500 * time.Millisecond
	DefaultVisibility    = VisibilityVisible
)

// Visibility filters located elements by their rendered state
type Visibility string

const (
	VisibilityAny     Visibility = "any"
	VisibilityVisible Visibility = "visible"
	VisibilityHidden  Visibility = "hidden"
)

// ParseVisibility - converts a textual visibility ("" means unset)
func ParseVisibility(s string) (NullVisibility, error) {
	switch v := Visibility(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return NullVisibility{}, nil
	case VisibilityAny, VisibilityVisible, VisibilityHidden:
		return NullVisibilityFrom(v), nil
	default:
		return NullVisibility{}, fmt.Errorf("unknown visibility %q", s)
	}
}

// NullVisibility is a Visibility that tracks whether it was set.
type NullVisibility struct {
	Visibility Visibility
	Valid      bool
}

// NullVisibilityFrom - creates a valid NullVisibility
func NullVisibilityFrom(v Visibility) NullVisibility {
	return NullVisibility{Visibility: v, Valid: true}
}

// UnmarshalText lets envconfig and text decoders fill a NullVisibility.
func (v *NullVisibility) UnmarshalText(data []byte) error {
	parsed, err := ParseVisibility(string(data))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// SearchOptions controls how long and how often the browser is polled and
// which elements qualify. Every field records whether it was set so that an
// outer caller's explicit choice is never overridden by a component's
// declared defaults.
//
// SearchOptions is a value type: methods return modified copies.
type SearchOptions struct {
	Timeout       NullDuration
	RetryInterval NullDuration
	Visibility    NullVisibility
	Safely        null.Bool
}

// Within - options with an explicit timeout
func Within(timeout time.Duration) SearchOptions {
	return SearchOptions{}.WithTimeout(timeout)
}

// Safely - options that suppress not-found/not-missing errors
func Safely() SearchOptions {
	return SearchOptions{}.WithSafely(true)
}

// Unsafely - options that explicitly request errors on failure
func Unsafely() SearchOptions {
	return SearchOptions{}.WithSafely(false)
}

// AtOnce - options that perform a single attempt
func AtOnce() SearchOptions {
	return SearchOptions{}.WithTimeout(0)
}

func (o SearchOptions) WithTimeout(d time.Duration) SearchOptions {
	o.Timeout = NullDurationFrom(d)
	return o
}

func (o SearchOptions) WithRetryInterval(d time.Duration) SearchOptions {
	o.RetryInterval = NullDurationFrom(d)
	return o
}

func (o SearchOptions) WithVisibility(v Visibility) SearchOptions {
	o.Visibility = NullVisibilityFrom(v)
	return o
}

func (o SearchOptions) WithSafely(safely bool) SearchOptions {
	o.Safely = null.BoolFrom(safely)
	return o
}

// Clone returns an independent copy.
func (o SearchOptions) Clone() SearchOptions {
	return o
}

// SafelyAtOnce returns a copy downgraded to a single, error-suppressed
// attempt. Fan-out over many candidates uses it so that the retry budget is
// not multiplied by the number of candidates.
func (o SearchOptions) SafelyAtOnce() SearchOptions {
	return o.WithSafely(true).WithTimeout(0)
}

// Specialize fills the fields that are not set in o from fallback. Fields o
// already sets are kept.
func (o SearchOptions) Specialize(fallback SearchOptions) SearchOptions {
	if !o.Timeout.Valid {
		o.Timeout = fallback.Timeout
	}
	if !o.RetryInterval.Valid {
		o.RetryInterval = fallback.RetryInterval
	}
	if !o.Visibility.Valid {
		o.Visibility = fallback.Visibility
	}
	if !o.Safely.Valid {
		o.Safely = fallback.Safely
	}
	return o
}

// Apply overrides the fields of o with the fields set in overlay.
func (o SearchOptions) Apply(overlay SearchOptions) SearchOptions {
	return overlay.Specialize(o)
}

// TimeoutValue returns the effective timeout.
func (o SearchOptions) TimeoutValue() time.Duration {
	if o.Timeout.Valid {
		return o.Timeout.Duration
	}
	return DefaultTimeout
}

// RetryIntervalValue returns the effective retry interval.
func (o SearchOptions) RetryIntervalValue() time.Duration {
	if o.RetryInterval.Valid {
		return o.RetryInterval.Duration
	}
	return DefaultRetryInterval
}

// VisibilityValue returns the effective visibility filter.
func (o SearchOptions) VisibilityValue() Visibility {
	if o.Visibility.Valid {
		return o.Visibility.Visibility
	}
	return DefaultVisibility
}

// IsSafely reports whether failures are suppressed.
func (o SearchOptions) IsSafely() bool {
	return o.Safely.Valid && o.Safely.Bool
}

func (o SearchOptions) String() string {
	return fmt.Sprintf("timeout=%s retry=%s visibility=%s safely=%t",
		o.TimeoutValue(), o.RetryIntervalValue(), o.VisibilityValue(), o.IsSafely())
}
