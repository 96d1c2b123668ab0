// Package config loads runtime configuration for the calckeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c/-config or CALCKEEPER_CLIENT_CONFIG.
//  3. CALCKEEPER_* environment variables.
//  4. Command-line flags, bound by the command tree (-a/--address).
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "session_file": "/home/me/.calckeeper/session.json",
//	  "request_timeout": "10s"
//	}
package config
