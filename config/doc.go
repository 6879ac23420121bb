// Package config loads the batch settings from defaults, an optional YAML file
// and SPECTROBOX_* environment variables, in that order.
package config
