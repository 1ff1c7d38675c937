// Package game defines the playable modes of the door game and the registry
// that looks them up by command.
package game

import (
	"fmt"
	"strings"

	"prize-door-game/internal/config"
	"prize-door-game/internal/game/door"
)

// ClassicCommand is the command of the built-in three door mode.
const ClassicCommand = "classic"

// Mode is a named board layout.
type Mode struct {
	Command     string      // e.g. "classic", "grand"
	Name        string      // display name
	Description string      // short rules summary
	Config      door.Config // board layout
}

// Classic returns the built-in three door, one reveal mode.
func Classic() Mode {
	return Mode{
		Command:     ClassicCommand,
		Name:        "Classic",
		Description: "Three doors, one prize. The host opens an empty door, then you stay or switch.",
		Config:      door.ClassicConfig(),
	}
}

// Validate checks the command and board layout.
func (m Mode) Validate() error {
	if strings.TrimSpace(m.Command) == "" {
		return fmt.Errorf("mode command cannot be empty")
	}
	if err := m.Config.Validate(); err != nil {
		return fmt.Errorf("mode %q: %w", m.Command, err)
	}
	return nil
}

// FromConfig converts a configured mode, filling in display defaults.
func FromConfig(mc config.ModeConfig) Mode {
	m := Mode{
		Command:     mc.Command,
		Name:        mc.Name,
		Description: mc.Description,
		Config:      door.Config{DoorCount: mc.DoorCount, RevealCount: mc.RevealCount},
	}
	if m.Name == "" {
		m.Name = mc.Command
	}
	if m.Description == "" {
		m.Description = fmt.Sprintf("%d doors, %d opened by the host before you decide.",
			m.Config.DoorCount, m.Config.RevealCount)
	}
	return m
}
