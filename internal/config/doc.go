// Package config handles configuration loading for eyecandy-web.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	reddit:
//	  client_secret: "${REDDIT_CLIENT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Database:
//
//	database:
//	  path: "/var/lib/eyecandy/searches.db"
//
// Reddit API credentials:
//
//	reddit:
//	  client_id: "${REDDIT_CLIENT_ID}"
//	  client_secret: "${REDDIT_CLIENT_SECRET}"
//	  user_agent: "eyecandy/1.0"
//
// Tailscale:
//
//	tailscale:
//	  enabled: false
//	  hostname: "eyecandy"
//	  auth_key: "${TS_AUTHKEY}"
//	  funnel: false
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - An HTTP address (or an enabled Tailscale listener with a hostname)
//   - Database path presence
//   - Reddit credential presence
package config
