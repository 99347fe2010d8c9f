package config

import (
	"os"
	"path/filepath"
	"testing"

	"servoarm/arm"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultArmConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Default config failed validation: %v", err)
	}

	expected := arm.JointAngles{90, 180, 165, 90, 180}
	if cfg.InitialAngles() != expected {
		t.Errorf("Expected initial pose %v, got %v", expected, cfg.InitialAngles())
	}
	if len(cfg.Axis(arm.Axis2).Channels) != 2 {
		t.Errorf("Expected two shoulder servos, got %v", cfg.Axis(arm.Axis2).Channels)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{
		"motion": {"total_duration_ms": 2000, "acceleration": 250},
		"geometry": {"wrist_length": 75},
		"default_pitch": -30
	}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Motion.TotalDurationMs != 2000 {
		t.Errorf("Expected duration 2000, got %f", cfg.Motion.TotalDurationMs)
	}
	if cfg.Motion.Acceleration != 250 {
		t.Errorf("Expected acceleration 250, got %f", cfg.Motion.Acceleration)
	}
	if cfg.Motion.PollIntervalUs != 1000 {
		t.Errorf("Expected default poll interval, got %d", cfg.Motion.PollIntervalUs)
	}
	if cfg.Geometry.WristLength != 75 {
		t.Errorf("Expected wrist length 75, got %f", cfg.Geometry.WristLength)
	}
	if cfg.Geometry.LowerArm != 120 {
		t.Errorf("Expected default lower arm, got %f", cfg.Geometry.LowerArm)
	}
	if cfg.DefaultPitch != -30 {
		t.Errorf("Expected default pitch -30, got %f", cfg.DefaultPitch)
	}
	if cfg.Axis(arm.Axis3).Range != 165 {
		t.Errorf("Expected elbow range to survive, got %d", cfg.Axis(arm.Axis3).Range)
	}
}

func TestLoadConfigPartialAxes(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{"axes": [{"name": "base", "range": 170}]}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	base := cfg.Axis(arm.Axis1)
	if base.Range != 170 {
		t.Errorf("Expected base range 170, got %d", base.Range)
	}
	if base.InitialAngle != 90 || base.ZeroOffset != 90 {
		t.Errorf("Expected unlisted base fields to keep defaults, got %+v", base)
	}

	expected := arm.JointAngles{90, 180, 165, 90, 180}
	if cfg.InitialAngles() != expected {
		t.Errorf("Expected initial pose %v, got %v", expected, cfg.InitialAngles())
	}
	if len(cfg.Axis(arm.Axis2).Channels) != 2 {
		t.Errorf("Expected two shoulder servos, got %v", cfg.Axis(arm.Axis2).Channels)
	}

	elbow := cfg.Axis(arm.Axis3)
	defaults := DefaultArmConfig().Axis(arm.Axis3)
	if elbow.Range != 165 || elbow.ZeroOffset != defaults.ZeroOffset || elbow.Reversed != defaults.Reversed {
		t.Errorf("Expected default elbow, got %+v", elbow)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"malformed", `{"motion": `},
		{"negative acceleration", `{"motion": {"acceleration": -1}}`},
		{"negative duration", `{"motion": {"total_duration_ms": -5}}`},
		{"negative poll interval", `{"motion": {"poll_interval_us": -1}}`},
		{"negative lower arm", `{"geometry": {"lower_arm": -120}}`},
		{"too many axes", `{"axes": [{}, {}, {}, {}, {}, {}]}`},
	}

	for _, test := range tests {
		if _, err := LoadConfig([]byte(test.json)); err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *arm.ArmConfig)
	}{
		{"duplicate channel", func(cfg *arm.ArmConfig) { cfg.Axes[3].Channels = []uint8{2} }},
		{"initial angle out of range", func(cfg *arm.ArmConfig) { cfg.Axes[2].InitialAngle = 170 }},
		{"zero range", func(cfg *arm.ArmConfig) { cfg.Axes[0].Range = 0 }},
		{"range too large", func(cfg *arm.ArmConfig) { cfg.Axes[0].Range = 300 }},
		{"inverted pulse range", func(cfg *arm.ArmConfig) { cfg.Axes[4].MinPulseUs = 2600 }},
		{"zero acceleration", func(cfg *arm.ArmConfig) { cfg.Motion.Acceleration = 0 }},
	}

	for _, test := range tests {
		cfg := DefaultArmConfig()
		test.modify(cfg)
		if err := Validate(cfg); err == nil {
			t.Errorf("%s: expected validation error", test.name)
		}
	}
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile(\"\") failed: %v", err)
	}
	if cfg.Motion.Acceleration != 320 {
		t.Errorf("Expected default acceleration, got %f", cfg.Motion.Acceleration)
	}

	path := filepath.Join(t.TempDir(), "arm.json")
	if err := os.WriteFile(path, []byte(`{"serial": {"device": "/dev/ttyUSB1"}}`), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	cfg, err = LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Serial.Device != "/dev/ttyUSB1" {
		t.Errorf("Expected device /dev/ttyUSB1, got %s", cfg.Serial.Device)
	}
	if cfg.Serial.Baud != 115200 {
		t.Errorf("Expected default baud, got %d", cfg.Serial.Baud)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}
