// Package config loads, normalizes, and validates mqttha configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MQTTHA_BROKER_PASSWORD. Legacy "No" values for the log directory, mail
// recipient, and follow-up command are normalized to empty strings, which is
// how every other package recognizes a disabled feature.
//
// A loaded Config is the run context: it is built once at startup and passed
// by pointer to every component without further mutation.
package config
