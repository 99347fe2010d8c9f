package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"servoarm/arm"
	"servoarm/core"
)

// LoadConfig parses a JSON configuration on top of the default arm and
// returns the validated result. Omitted fields keep their default values.
func LoadConfig(jsonData []byte) (*arm.ArmConfig, error) {
	config := DefaultArmConfig()

	err := json.Unmarshal(jsonData, config)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse arm config")
	}

	if err := restoreOmittedAxes(jsonData, config); err != nil {
		return nil, err
	}

	applyDefaults(config)

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFile reads and parses a configuration file. An empty path yields the
// default configuration.
func LoadFile(path string) (*arm.ArmConfig, error) {
	if path == "" {
		return DefaultArmConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config file %s", path)
	}

	return LoadConfig(data)
}

// restoreOmittedAxes puts back the default axes that an "axes" array shorter
// than the arm left out. Listed entries are merged onto their default axis.
func restoreOmittedAxes(jsonData []byte, config *arm.ArmConfig) error {
	var overlay struct {
		Axes []json.RawMessage `json:"axes"`
	}
	if err := json.Unmarshal(jsonData, &overlay); err != nil {
		return errors.Wrap(err, "could not parse arm config")
	}
	if overlay.Axes == nil {
		return nil
	}
	if len(overlay.Axes) > arm.NumAxes {
		return errors.Errorf("axes: %d entries for a %d axis arm", len(overlay.Axes), arm.NumAxes)
	}

	defaults := DefaultArmConfig()
	for i := len(overlay.Axes); i < arm.NumAxes; i++ {
		config.Axes[i] = defaults.Axes[i]
	}
	return nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *arm.ArmConfig) {
	defaults := DefaultArmConfig()

	// Default motion parameters
	if config.Motion.TotalDurationMs == 0 {
		config.Motion.TotalDurationMs = defaults.Motion.TotalDurationMs
	}
	if config.Motion.Acceleration == 0 {
		config.Motion.Acceleration = defaults.Motion.Acceleration
	}
	if config.Motion.PollIntervalUs == 0 {
		config.Motion.PollIntervalUs = defaults.Motion.PollIntervalUs
	}

	// Apply defaults to each axis
	for i := range config.Axes {
		axis := &config.Axes[i]
		if axis.Name == "" {
			axis.Name = arm.AllAxes[i].String()
		}
		if len(axis.Channels) == 0 {
			axis.Channels = []uint8{uint8(i)}
		}
		if axis.Range == 0 {
			axis.Range = 180
		}
		if axis.MinPulseUs == 0 {
			axis.MinPulseUs = core.DefaultMinPulseUs
		}
		if axis.MaxPulseUs == 0 {
			axis.MaxPulseUs = core.DefaultMaxPulseUs
		}
		if axis.GearRatio == 0 {
			axis.GearRatio = 1.0
		}
	}

	// Default linkage
	g := &config.Geometry
	if g.ShoulderHeight == 0 {
		g.ShoulderHeight = defaults.Geometry.ShoulderHeight
	}
	if g.LowerArm == 0 {
		g.LowerArm = defaults.Geometry.LowerArm
	}
	if g.UpperArm == 0 {
		g.UpperArm = defaults.Geometry.UpperArm
	}
	if g.WristLength == 0 {
		g.WristLength = defaults.Geometry.WristLength
	}

	// Default transport
	if config.Serial.Device == "" {
		config.Serial.Device = defaults.Serial.Device
	}
	if config.Serial.Baud == 0 {
		config.Serial.Baud = defaults.Serial.Baud
	}
	if config.Serial.ReadTimeoutMs == 0 {
		config.Serial.ReadTimeoutMs = defaults.Serial.ReadTimeoutMs
	}
}

// Validate checks a configuration for values the motion core cannot run with
func Validate(config *arm.ArmConfig) error {
	if config.Motion.TotalDurationMs <= 0 {
		return errors.Errorf("motion.total_duration_ms must be positive, got %v", config.Motion.TotalDurationMs)
	}
	if config.Motion.Acceleration <= 0 {
		return errors.Errorf("motion.acceleration must be positive, got %v", config.Motion.Acceleration)
	}
	if config.Motion.PollIntervalUs < 0 {
		return errors.Errorf("motion.poll_interval_us must not be negative, got %d", config.Motion.PollIntervalUs)
	}

	seen := make(map[uint8]arm.AxisID)
	for _, id := range arm.AllAxes {
		axis := config.Axis(id)
		if axis.Range <= 0 || axis.Range > 255 {
			return errors.Errorf("%s: range %d outside (0, 255]", id, axis.Range)
		}
		if !axis.Limits().Contains(float64(axis.InitialAngle)) {
			return errors.Errorf("%s: initial angle %d outside [0, %d]", id, axis.InitialAngle, axis.Range)
		}
		if axis.MinPulseUs >= axis.MaxPulseUs {
			return errors.Errorf("%s: min pulse %dus must be below max pulse %dus", id, axis.MinPulseUs, axis.MaxPulseUs)
		}
		for _, ch := range axis.Channels {
			if other, dup := seen[ch]; dup {
				return errors.Errorf("%s: channel %d already used by %s", id, ch, other)
			}
			seen[ch] = id
		}
	}

	g := config.Geometry
	if g.ShoulderHeight < 0 || g.LowerArm <= 0 || g.UpperArm <= 0 || g.UpperArmOffset < 0 || g.WristLength < 0 {
		return errors.Errorf("geometry has a non-physical dimension: %+v", g)
	}

	return nil
}

// DefaultArmConfig returns the configuration of the reference arm
func DefaultArmConfig() *arm.ArmConfig {
	return &arm.ArmConfig{
		Motion: arm.MotionConfig{
			TotalDurationMs: 1500.0,
			Acceleration:    320.0,
			PollIntervalUs:  1000,
		},
		Axes: [arm.NumAxes]arm.AxisConfig{
			{
				Name:         "base",
				Channels:     []uint8{0},
				Range:        180,
				InitialAngle: 90,
				MinPulseUs:   core.DefaultMinPulseUs,
				MaxPulseUs:   core.DefaultMaxPulseUs,
				GearRatio:    1.0,
				ZeroOffset:   90.0,
			},
			{
				Name:         "shoulder",
				Channels:     []uint8{1, 2},
				Range:        180,
				InitialAngle: 180,
				MinPulseUs:   core.DefaultMinPulseUs,
				MaxPulseUs:   core.DefaultMaxPulseUs,
				GearRatio:    -1.0,
				ZeroOffset:   180.0,
				Reversed:     true,
			},
			{
				Name:         "elbow",
				Channels:     []uint8{3},
				Range:        165,
				InitialAngle: 165,
				MinPulseUs:   core.DefaultMinPulseUs,
				MaxPulseUs:   2333,
				GearRatio:    1.0,
				ZeroOffset:   165.0,
				Reversed:     true,
			},
			{
				Name:         "wrist_pitch",
				Channels:     []uint8{4},
				Range:        180,
				InitialAngle: 90,
				MinPulseUs:   core.DefaultMinPulseUs,
				MaxPulseUs:   core.DefaultMaxPulseUs,
				GearRatio:    1.0,
				ZeroOffset:   90.0,
				Reversed:     true,
			},
			{
				Name:         "wrist_rotate",
				Channels:     []uint8{5},
				Range:        180,
				InitialAngle: 180,
				MinPulseUs:   core.DefaultMinPulseUs,
				MaxPulseUs:   core.DefaultMaxPulseUs,
				GearRatio:    2.0,
				ZeroOffset:   90.0,
			},
		},
		Geometry: arm.Geometry{
			ShoulderHeight: 80.0,
			LowerArm:       120.0,
			UpperArm:       120.0,
			UpperArmOffset: 12.0,
			WristLength:    60.0,
		},
		Serial: arm.SerialConfig{
			Device:        "/dev/ttyACM0",
			Baud:          115200,
			ReadTimeoutMs: 100,
		},
		DefaultYaw:   0.0,
		DefaultPitch: 0.0,
	}
}
