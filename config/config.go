// Package config persists application settings: per-device axis
// calibration, executable to profile associations and UI behavior
// flags. Settings live in a single JSON file in the user's config
// directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/a8m/envsubst"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/joyremap/joyremap/utils"
)

// Calibration is the (minimum, center, maximum) raw range of one
// physical axis.
type Calibration [3]int

// DefaultCalibration covers the full signed 16 bit range most drivers
// report.
var DefaultCalibration = Calibration{-32768, 0, 32767}

// Config is the persisted application state. Maps are keyed by the
// decimal hardware id (calibration), executable path (profiles) and
// profile path (last modes).
type Config struct {
	Calibration map[string]map[string]Calibration `json:"calibration"`
	Profiles    map[string]string                 `json:"profiles"`
	LastModes   map[string]string                 `json:"last_modes"`
	LastProfile string                            `json:"last_profile"`

	// VJoyDevices holds per virtual device driver options, keyed by
	// decimal device id. Consumers decode the shape they need.
	VJoyDevices map[string]utils.AttributeMap `json:"vjoy_devices"`

	AutoloadProfiles  bool `json:"autoload_profiles"`
	HighlightInput    bool `json:"highlight_input"`
	ModeChangeMessage bool `json:"mode_change_message"`
	CloseToTray       bool `json:"close_to_tray"`
	StartMinimized    bool `json:"start_minimized"`
}

// Default returns a config with all sections present and flags at
// their defaults.
func Default() *Config {
	return &Config{
		Calibration: map[string]map[string]Calibration{},
		Profiles:    map[string]string{},
		LastModes:   map[string]string{},
		VJoyDevices: map[string]utils.AttributeMap{},
	}
}

// DefaultPath returns the standard location of the config file.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to locate user config directory")
	}
	return filepath.Join(dir, "joyremap", "config.json"), nil
}

// Read loads the config file at path, substituting environment
// variables. A missing or unreadable file yields the defaults;
// sections absent from the file are recreated.
func Read(path string, logger golog.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	cfg := Default()
	if err := json.Unmarshal(buf, cfg); err != nil {
		logger.Warnw("config file is corrupt, using defaults", "path", path, "error", err)
		return Default(), nil
	}
	cfg.ensureSections()
	return cfg, nil
}

func (c *Config) ensureSections() {
	if c.Calibration == nil {
		c.Calibration = map[string]map[string]Calibration{}
	}
	if c.Profiles == nil {
		c.Profiles = map[string]string{}
	}
	if c.LastModes == nil {
		c.LastModes = map[string]string{}
	}
	if c.VJoyDevices == nil {
		c.VJoyDevices = map[string]utils.AttributeMap{}
	}
}

// Write saves the config to path, creating the directory as needed.
// Output is pretty printed with sorted keys so files diff cleanly.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create config directory for %s", path)
	}
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return errors.Wrap(err, "failed to serialize config")
	}
	return errors.Wrapf(os.WriteFile(path, append(data, '\n'), 0o644), "failed to write config %s", path)
}

func calibrationKeys(hardwareID int64, axis int) (string, string) {
	return fmt.Sprintf("%d", hardwareID), fmt.Sprintf("axis_%d", axis)
}

// AxisCalibration returns the stored calibration of the given axis, or
// the default when none was stored.
func (c *Config) AxisCalibration(hardwareID int64, axis int) Calibration {
	devKey, axisKey := calibrationKeys(hardwareID, axis)
	if cal, ok := c.Calibration[devKey][axisKey]; ok {
		return cal
	}
	return DefaultCalibration
}

// SetAxisCalibration stores the calibration of the given axis.
func (c *Config) SetAxisCalibration(hardwareID int64, axis int, cal Calibration) {
	devKey, axisKey := calibrationKeys(hardwareID, axis)
	if c.Calibration[devKey] == nil {
		c.Calibration[devKey] = map[string]Calibration{}
	}
	c.Calibration[devKey][axisKey] = cal
}

// VJoyOptions returns the driver options of the given virtual device.
// Devices without stored options get an empty map.
func (c *Config) VJoyOptions(deviceID int) utils.AttributeMap {
	if opts, ok := c.VJoyDevices[fmt.Sprintf("%d", deviceID)]; ok {
		return opts
	}
	return utils.AttributeMap{}
}

// ProfileForExecutable returns the profile associated with the given
// executable path.
func (c *Config) ProfileForExecutable(exePath string) (string, bool) {
	p, ok := c.Profiles[exePath]
	return p, ok
}

// SetProfileForExecutable associates a profile with an executable so
// it can be autoloaded when that program gains focus.
func (c *Config) SetProfileForExecutable(exePath, profilePath string) {
	c.Profiles[exePath] = profilePath
}

// LastMode returns the mode last active for the given profile,
// defaulting to "Default".
func (c *Config) LastMode(profilePath string) string {
	if mode, ok := c.LastModes[profilePath]; ok {
		return mode
	}
	return "Default"
}

// SetLastMode records the active mode of a profile.
func (c *Config) SetLastMode(profilePath, mode string) {
	c.LastModes[profilePath] = mode
	c.LastProfile = profilePath
}
