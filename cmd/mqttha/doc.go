// Package main hosts the mqttha CLI entrypoint and command graph.
//
// The root command performs one publish run against the configuration named
// by -c/--config and exits with the run's status code. The check and config
// subcommands cover readiness inspection and configuration scaffolding.
//
// Keep this package lean: new behaviour belongs in the internal packages and
// is only surfaced here through flags or subcommands.
package main
