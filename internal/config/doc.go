// Package config defines the settings of a sync run and helpers to load,
// validate and save them in YAML format.
//
// Every field has a default matching the Ubuntu cloud-image layout, so the
// tool runs without a settings file; a file only overrides what it names.
package config
