// Package config reads and writes engram settings stored in the
// repository's git config under the [engram] section, so a clone carries
// its capture configuration with it.
package config

import (
	"strconv"

	gitconfig "github.com/go-git/go-git/v5/config"
)

// Section is the git config section holding engram settings.
const Section = "engram"

// SchemaVersion is written as engram.version on init.
const SchemaVersion = 1

// Settings holds the [engram] section of a repository's git config.
type Settings struct {
	// Enabled gates all engram operations in this repository
	Enabled bool

	// Version is the engram schema version set at init time
	Version int

	// AutoCapture requests wrapper capture without an explicit record command
	AutoCapture bool

	// DefaultAgent is the agent name assumed when none is given
	DefaultAgent string
}

// DefaultInit returns the settings written by `engram init`.
func DefaultInit() Settings {
	return Settings{
		Enabled: true,
		Version: SchemaVersion,
	}
}

// Load reads settings from a repository's git config. Missing keys fall
// back to zero values; a repo without an [engram] section is simply not
// initialized.
func Load(cfg *gitconfig.Config) Settings {
	sec := cfg.Raw.Section(Section)

	version, _ := strconv.Atoi(sec.Option("version"))

	return Settings{
		Enabled:      sec.Option("enabled") == "true",
		Version:      version,
		AutoCapture:  sec.Option("autoCapture") == "true",
		DefaultAgent: sec.Option("defaultAgent"),
	}
}

// Apply writes the settings into a git config object. The caller persists
// it with Repository.SetConfig.
func (s Settings) Apply(cfg *gitconfig.Config) {
	sec := cfg.Raw.Section(Section)
	sec.SetOption("enabled", strconv.FormatBool(s.Enabled))
	sec.SetOption("version", strconv.Itoa(s.Version))
	if s.AutoCapture {
		sec.SetOption("autoCapture", "true")
	}
	if s.DefaultAgent != "" {
		sec.SetOption("defaultAgent", s.DefaultAgent)
	}
}
