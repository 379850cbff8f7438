// Package config loads, saves and validates the YAML settings shared by the
// shipper binaries. All fields default to the PhotoSelector packaging setup,
// so the tools run without any settings file present.
package config
