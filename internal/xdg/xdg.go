// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

// Package xdg resolves XDG Base Directory paths for lireddit.
package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const appName = "lireddit"

// ConfigFileName is the config file looked up in ConfigDir.
const ConfigFileName = "config.yaml"

// ConfigDir returns the XDG config directory for lireddit.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// DefaultConfigFile returns ConfigDir/config.yaml if it exists as a regular
// file, and "" otherwise.
func DefaultConfigFile() string {
	path := filepath.Join(ConfigDir(), ConfigFileName)
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return path // let the loader report the real error
		}
		return ""
	}
	if !info.Mode().IsRegular() {
		return ""
	}
	return path
}
