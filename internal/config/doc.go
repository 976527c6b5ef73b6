// Package config handles loading and parsing the libterm configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/libterm/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Default Values
//
//   - Config file: ~/.config/libterm/config.toml
//   - API base URL: http://127.0.0.1:5000
//   - Data directory: ~/.local/share/libterm
//   - State database: <data_dir>/state.db
//   - Log file: <data_dir>/libterm.log
//   - Start path: /
//   - Request timeout: none
//
// # TOML Format
//
//	api_url = "http://127.0.0.1:5000"
//	data_dir = "~/.local/share/libterm"
//	log_level = "info"
//	start_path = "/courses"
//	request_timeout = 0
//
// All fields are optional. Tilde expansion is performed on data_dir.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, TOML parse errors, and a negative request_timeout. A missing
// config file is not an error.
package config
