package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// NullDuration is a nullable time.Duration, in the same vein as the nullable
// types provided by package gopkg.in/guregu/null.v3. Valid reports whether the
// value was explicitly set.
type NullDuration struct {
	Duration time.Duration
	Valid    bool
}

// NewNullDuration - creates a NullDuration
func NewNullDuration(d time.Duration, valid bool) NullDuration {
	return NullDuration{Duration: d, Valid: valid}
}

// NullDurationFrom - creates a valid NullDuration
func NullDurationFrom(d time.Duration) NullDuration {
	return NullDuration{Duration: d, Valid: true}
}

// ValueOrZero returns the duration if valid or zero otherwise.
func (d NullDuration) ValueOrZero() time.Duration {
	if !d.Valid {
		return 0
	}
	return d.Duration
}

// UnmarshalText parses a Go duration string ("1.5s", "250ms"). An empty
// input leaves the duration unset.
func (d *NullDuration) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*d = NullDuration{}
		return nil
	}
	v, err := time.ParseDuration(string(data))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(data), err)
	}
	*d = NullDurationFrom(v)
	return nil
}

// MarshalText is the inverse of UnmarshalText.
func (d NullDuration) MarshalText() ([]byte, error) {
	if !d.Valid {
		return []byte{}, nil
	}
	return []byte(d.Duration.String()), nil
}

// UnmarshalJSON accepts null, a duration string or a number of milliseconds.
func (d *NullDuration) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte(`null`)) {
		*d = NullDuration{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return d.UnmarshalText([]byte(s))
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return err
	}
	*d = NullDurationFrom(time.Duration(ms * float64(time.Millisecond)))
	return nil
}

// MarshalJSON returns null for an unset duration.
func (d NullDuration) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte(`null`), nil
	}
	return json.Marshal(d.Duration.String())
}

func (d NullDuration) String() string {
	if !d.Valid {
		return "unset"
	}
	return d.Duration.String()
}
