// Package timex contains time helpers shared by config loaders.
package timex

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Duration wraps time.Duration so JSON config files can hold either a
// Go duration string ("15m", "168h") or an integer number of seconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value * float64(time.Second))
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
		return nil
	case nil:
		return nil
	default:
		return errors.New("invalid duration")
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// EnvDuration reads a duration from an environment variable. A bare integer
// is taken as seconds, anything else must parse with time.ParseDuration.
type EnvDuration time.Duration

// SetValue implements cleanenv.Setter.
func (d *EnvDuration) SetValue(s string) error {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = EnvDuration(time.Duration(secs) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = EnvDuration(parsed)
	return nil
}
