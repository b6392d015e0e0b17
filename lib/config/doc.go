// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the relay configuration.
//
// Configuration comes from exactly one YAML file named by the --config
// flag ([LoadFile]) or the PICORD_CONFIG environment variable ([Load]).
// There is no search path and no environment override of individual
// values; ${HOME} and ${VAR:-default} patterns are expanded in path
// fields only.
//
// The terminal section may point at an overlay file
// (terminal.config_file) in JSON-with-comments form carrying the two
// settings the terminal feature has always read from its own file:
//
//	{
//	    // seconds before a command is killed
//	    "timeout": 30,
//	    "allowed_commands": ["ls", "cat", "cd"],
//	}
//
// Values present in the overlay replace the YAML values.
//
// This package depends on no other PiCord packages.
package config
