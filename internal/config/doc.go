// Package config manages panel settings stored at ~/.panel/config.yaml (or the
// file named by --config / PANEL_CONFIG). Settings are layered with Viper:
// built-in defaults, then the YAML file, then PANEL_* environment variables.
package config
