// Package tuning loads the pipeline's tunable constants from a JSON file:
// pointer fields so a partial file only overrides what it names, everything
// else falls back to the documented default.
package tuning

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is where the canonical tuning defaults live relative to
// the repository root.
const DefaultConfigPath = "config/tuning.defaults.json"

// Config holds every tunable pipeline constant. Fields are pointers so
// LoadConfig can distinguish "not specified" from "explicitly zero".
type Config struct {
	LinkLength   *float64 `json:"link_length,omitempty"`
	NumLinks     *int     `json:"num_links,omitempty"`
	MarkerLength *float64 `json:"marker_length,omitempty"`

	APFDInfluence    *float64 `json:"apf_d_influence,omitempty"`
	APFDSafety       *float64 `json:"apf_d_safety,omitempty"`
	APFKRep          *float64 `json:"apf_k_rep,omitempty"`
	APFEta           *float64 `json:"apf_eta,omitempty"`
	APFMaxAdjustment *float64 `json:"apf_max_adjustment,omitempty"`

	PCRCollisionRadius *float64 `json:"pcr_collision_radius,omitempty"`
	PCRTimeWindow      *float64 `json:"pcr_time_window,omitempty"`
	PCRRobotSpeedMin   *float64 `json:"pcr_robot_speed_min,omitempty"`
	PCRRobotSpeedMax   *float64 `json:"pcr_robot_speed_max,omitempty"`
	PCRClearMargin     *float64 `json:"pcr_clear_margin,omitempty"`

	SerialBaudRate *int `json:"serial_baud_rate,omitempty"`
}

// EmptyConfig returns a Config with every field nil. LoadConfig starts from
// this and fills in only what the JSON file specifies; the Get* accessors
// supply defaults for everything else.
func EmptyConfig() *Config {
	return &Config{}
}

// LoadConfig reads a Config from a JSON file: the path must end in .json
// and the file is capped at 1MB.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("tuning config must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("stat tuning config: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("tuning config too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read tuning config: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse tuning config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning config: %w", err)
	}
	return cfg, nil
}

// Validate rejects values that would break invariants downstream: a
// non-positive link count or link length, apf_d_safety not below
// apf_d_influence, and inverted speed bounds. The sign of the radii is not
// checked.
func (c *Config) Validate() error {
	if c.NumLinks != nil && *c.NumLinks <= 0 {
		return fmt.Errorf("num_links must be positive, got %d", *c.NumLinks)
	}
	if c.LinkLength != nil && *c.LinkLength <= 0 {
		return fmt.Errorf("link_length must be positive, got %f", *c.LinkLength)
	}
	if c.APFDSafety != nil && c.APFDInfluence != nil && *c.APFDSafety >= *c.APFDInfluence {
		return fmt.Errorf("apf_d_safety (%f) must be less than apf_d_influence (%f)", *c.APFDSafety, *c.APFDInfluence)
	}
	if c.PCRRobotSpeedMin != nil && c.PCRRobotSpeedMax != nil && *c.PCRRobotSpeedMin > *c.PCRRobotSpeedMax {
		return fmt.Errorf("pcr_robot_speed_min (%f) must not exceed pcr_robot_speed_max (%f)", *c.PCRRobotSpeedMin, *c.PCRRobotSpeedMax)
	}
	return nil
}

// GetLinkLength returns LINK_LENGTH or its default (0.5 m).
func (c *Config) GetLinkLength() float64 {
	if c.LinkLength == nil {
		return 0.5
	}
	return *c.LinkLength
}

// GetNumLinks returns NUM_LINKS or its default (4).
func (c *Config) GetNumLinks() int {
	if c.NumLinks == nil {
		return 4
	}
	return *c.NumLinks
}

// GetMarkerLength returns MARKER_LENGTH or its default (0.12 m).
func (c *Config) GetMarkerLength() float64 {
	if c.MarkerLength == nil {
		return 0.12
	}
	return *c.MarkerLength
}

// GetAPFDInfluence returns APF_D_INFLUENCE or its default (0.30 m).
func (c *Config) GetAPFDInfluence() float64 {
	if c.APFDInfluence == nil {
		return 0.30
	}
	return *c.APFDInfluence
}

// GetAPFDSafety returns APF_D_SAFETY or its default (0.20 m).
func (c *Config) GetAPFDSafety() float64 {
	if c.APFDSafety == nil {
		return 0.20
	}
	return *c.APFDSafety
}

// GetAPFKRep returns APF_K_REP or its default (0.01).
func (c *Config) GetAPFKRep() float64 {
	if c.APFKRep == nil {
		return 0.01
	}
	return *c.APFKRep
}

// GetAPFEta returns APF_ETA or its default (0.1).
func (c *Config) GetAPFEta() float64 {
	if c.APFEta == nil {
		return 0.1
	}
	return *c.APFEta
}

// GetAPFMaxAdjustment returns APF_MAX_ADJUSTMENT or its default (0.1 m).
func (c *Config) GetAPFMaxAdjustment() float64 {
	if c.APFMaxAdjustment == nil {
		return 0.1
	}
	return *c.APFMaxAdjustment
}

// GetPCRCollisionRadius returns PCR_COLLISION_RADIUS or its default (0.30 m).
func (c *Config) GetPCRCollisionRadius() float64 {
	if c.PCRCollisionRadius == nil {
		return 0.30
	}
	return *c.PCRCollisionRadius
}

// GetPCRTimeWindow returns PCR_TIME_WINDOW or its default (2.0 s).
func (c *Config) GetPCRTimeWindow() float64 {
	if c.PCRTimeWindow == nil {
		return 2.0
	}
	return *c.PCRTimeWindow
}

// GetPCRRobotSpeedMin returns PCR_ROBOT_SPEED_MIN or its default (0.2 m/s).
func (c *Config) GetPCRRobotSpeedMin() float64 {
	if c.PCRRobotSpeedMin == nil {
		return 0.2
	}
	return *c.PCRRobotSpeedMin
}

// GetPCRRobotSpeedMax returns PCR_ROBOT_SPEED_MAX or its default (1.0 m/s).
func (c *Config) GetPCRRobotSpeedMax() float64 {
	if c.PCRRobotSpeedMax == nil {
		return 1.0
	}
	return *c.PCRRobotSpeedMax
}

// GetPCRClearMargin returns PCR_CLEAR_MARGIN or its default (1.5).
func (c *Config) GetPCRClearMargin() float64 {
	if c.PCRClearMargin == nil {
		return 1.5
	}
	return *c.PCRClearMargin
}

// GetSerialBaudRate returns the link baud rate or its default of 115200.
func (c *Config) GetSerialBaudRate() int {
	if c.SerialBaudRate == nil {
		return 115200
	}
	return *c.SerialBaudRate
}
