package models

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// DelayMode selects how a delay step decides when a run may continue.
type DelayMode string

const (
	// DelayModeAuto accepts whichever of the two wait settings is present.
	DelayModeAuto DelayMode = "auto"
	// DelayModeDuration waits for a fixed offset from step start.
	DelayModeDuration DelayMode = "duration"
	// DelayModeDatetime waits until a fixed point in time.
	DelayModeDatetime DelayMode = "datetime"
)

// DurationParts holds the user-editable components of a relative delay.
// Absent components are zero.
type DurationParts struct {
	Days    int `json:"days,omitempty"`
	Hours   int `json:"hours,omitempty"`
	Minutes int `json:"minutes,omitempty"`
	Seconds int `json:"seconds,omitempty"`
}

// IsZero reports whether every component is zero.
func (d DurationParts) IsZero() bool {
	return d.Days == 0 && d.Hours == 0 && d.Minutes == 0 && d.Seconds == 0
}

// HasNegative reports whether any component is negative.
func (d DurationParts) HasNegative() bool {
	return d.Days < 0 || d.Hours < 0 || d.Minutes < 0 || d.Seconds < 0
}

// Duration sums the components into a single duration.
func (d DurationParts) Duration() time.Duration {
	total := time.Duration(d.Days)*24*time.Hour +
		time.Duration(d.Hours)*time.Hour +
		time.Duration(d.Minutes)*time.Minute +
		time.Duration(d.Seconds)*time.Second

	return total
}

// DelayConfig describes a workflow delay step. The two wait settings are not
// mutually exclusive in storage; validity only requires one to be satisfied.
type DelayConfig struct {
	Mode DelayMode `json:"mode,omitempty"`

	// WaitFor delays relative to step start.
	WaitFor *DurationParts `json:"wait_for,omitempty"`

	// WaitUntil is an RFC 3339 timestamp marking when the delay ends.
	WaitUntil string `json:"wait_until,omitempty"`

	// JitterSeconds adds a random 0..N second slack on top of the base delay.
	JitterSeconds int `json:"jitter_seconds,omitempty"`
}

var (
	ErrDelayUnconfigured    = errors.New("configure either a wait duration or an absolute datetime")
	ErrDurationRequired     = errors.New("configure a duration before continuing")
	ErrWaitUntilRequired    = errors.New("configure a valid target datetime before continuing")
	ErrNegativeDuration     = errors.New("duration components must not be negative")
	ErrNegativeJitter       = errors.New("jitter_seconds must not be negative")
	ErrInvalidWaitUntil     = errors.New("wait_until must be an RFC 3339 timestamp")
	ErrInvalidDelayConfig   = errors.New("invalid delay configuration")
	ErrUnsupportedDelayMode = errors.New("unsupported delay mode")
)

// stringField reads an optional string field, rejecting other types.
func stringField(config map[string]any, key string) (string, error) {
	raw, ok := config[key]
	if !ok || raw == nil {
		return "", nil
	}

	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidDelayConfig, key)
	}

	return value, nil
}

// ParseDelayConfig builds a DelayConfig from a raw node configuration map.
// It is total over all input shapes: wrong-typed fields are reported as
// errors, absent fields take their defaults, and it never panics.
func ParseDelayConfig(config map[string]any) (*DelayConfig, error) {
	cfg := &DelayConfig{Mode: DelayModeAuto}

	if raw, ok := config["mode"]; ok && raw != nil {
		mode, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: mode must be a string", ErrInvalidDelayConfig)
		}

		if mode != "" {
			cfg.Mode = DelayMode(mode)
		}
	}

	switch cfg.Mode {
	case DelayModeAuto, DelayModeDuration, DelayModeDatetime:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDelayMode, cfg.Mode)
	}

	parts, present, err := parseDurationParts(config)
	if err != nil {
		return nil, err
	}

	if present {
		cfg.WaitFor = parts
	}

	waitUntil, err := stringField(config, "wait_until")
	if err != nil {
		return nil, err
	}

	if waitUntil == "" {
		// Editor snapshots use the flat name.
		waitUntil, err = stringField(config, "absolute_time")
		if err != nil {
			return nil, err
		}
	}

	cfg.WaitUntil = waitUntil

	if raw, ok := config["jitter_seconds"]; ok && raw != nil {
		jitter, ok := intFromAny(raw)
		if !ok {
			return nil, fmt.Errorf("%w: jitter_seconds must be an integer", ErrInvalidDelayConfig)
		}

		cfg.JitterSeconds = jitter
	}

	return cfg, nil
}

// parseDurationParts reads duration components either from a nested
// "wait_for" object or from flat top-level keys, whichever the editor sent.
func parseDurationParts(config map[string]any) (*DurationParts, bool, error) {
	source := config
	present := false

	if raw, ok := config["wait_for"]; ok && raw != nil {
		nested, ok := raw.(map[string]any)
		if !ok {
			return nil, false, fmt.Errorf("%w: wait_for must be an object", ErrInvalidDelayConfig)
		}

		source = nested
		present = true
	}

	parts := &DurationParts{}

	for key, target := range map[string]*int{
		"days":    &parts.Days,
		"hours":   &parts.Hours,
		"minutes": &parts.Minutes,
		"seconds": &parts.Seconds,
	} {
		raw, ok := source[key]
		if !ok || raw == nil {
			continue
		}

		value, ok := intFromAny(raw)
		if !ok {
			return nil, false, fmt.Errorf("%w: %s must be an integer", ErrInvalidDelayConfig, key)
		}

		*target = value
		present = true
	}

	if !present {
		return nil, false, nil
	}

	return parts, true, nil
}

// DurationTotal returns the summed relative wait, zero when unset.
func (c *DelayConfig) DurationTotal() time.Duration {
	if c.WaitFor == nil {
		return 0
	}

	return c.WaitFor.Duration()
}

// waitUntilTime parses WaitUntil with an explicit RFC 3339 layout. Permissive
// date parsing is deliberately avoided so accepted formats stay identical
// across editors and the engine.
func (c *DelayConfig) waitUntilTime() (time.Time, bool) {
	if c.WaitUntil == "" {
		return time.Time{}, false
	}

	target, err := time.Parse(time.RFC3339, c.WaitUntil)
	if err != nil {
		return time.Time{}, false
	}

	return target, true
}

// Validate reports whether the configuration is complete enough for the step
// to run. A configuration is valid only if at least one wait setting is
// meaningfully specified: the duration components sum to a positive quantity,
// or the absolute timestamp parses. All-zero components with no timestamp is
// the unconfigured state. Negative components are invalid regardless of the
// other fields.
func (c *DelayConfig) Validate() error {
	if c.WaitFor != nil && c.WaitFor.HasNegative() {
		return ErrNegativeDuration
	}

	if c.JitterSeconds < 0 {
		return ErrNegativeJitter
	}

	if c.WaitUntil != "" {
		if _, ok := c.waitUntilTime(); !ok {
			return ErrInvalidWaitUntil
		}
	}

	hasDuration := c.DurationTotal() > 0
	_, hasUntil := c.waitUntilTime()

	switch c.Mode {
	case DelayModeDuration:
		if !hasDuration {
			return ErrDurationRequired
		}
	case DelayModeDatetime:
		if !hasUntil {
			return ErrWaitUntilRequired
		}
	default:
		if !hasDuration && !hasUntil {
			return ErrDelayUnconfigured
		}
	}

	return nil
}

// HasErrors is the boolean signal consumed by the workflow editor: true when
// the configuration must be corrected before the step can run.
func (c *DelayConfig) HasErrors() bool {
	return c.Validate() != nil
}

// DelayPlan is the resolved outcome of a delay configuration at a given
// moment.
type DelayPlan struct {
	Base     time.Duration `json:"base"`
	Jitter   time.Duration `json:"jitter"`
	Total    time.Duration `json:"total"`
	ResumeAt time.Time     `json:"resume_at"`

	// Immediate means the run continues without sleeping, e.g. an absolute
	// target already in the past.
	Immediate bool `json:"immediate"`
}

// Plan resolves the configuration against now. Absolute targets in the past
// plan as immediate continuation rather than an error. rng may be nil, in
// which case the shared source is used for jitter.
func (c *DelayConfig) Plan(now time.Time, rng *rand.Rand) (DelayPlan, error) {
	if err := c.Validate(); err != nil {
		return DelayPlan{}, err
	}

	durationDelay := c.DurationTotal()

	var untilDelay time.Duration
	if target, ok := c.waitUntilTime(); ok && target.After(now) {
		untilDelay = target.Sub(now)
	}

	var base time.Duration

	switch c.Mode {
	case DelayModeDuration:
		base = durationDelay
	case DelayModeDatetime:
		base = untilDelay
	default:
		base = max(durationDelay, untilDelay)
	}

	var jitter time.Duration
	if c.JitterSeconds > 0 && base > 0 {
		n := c.JitterSeconds + 1
		if rng != nil {
			jitter = time.Duration(rng.IntN(n)) * time.Second
		} else {
			jitter = time.Duration(rand.IntN(n)) * time.Second
		}
	}

	total := base + jitter
	if total == 0 {
		return DelayPlan{ResumeAt: now, Immediate: true}, nil
	}

	return DelayPlan{
		Base:     base,
		Jitter:   jitter,
		Total:    total,
		ResumeAt: now.Add(total),
	}, nil
}

// intFromAny converts the numeric shapes JSON decoding may produce.
func intFromAny(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}

		return int(v), true
	default:
		return 0, false
	}
}
