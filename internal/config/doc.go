// Package config defines configuration structures for the carve CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (CARVE_ prefix)
//   - YAML configuration file
//
// Precedence: flags over environment over file over defaults. Byte
// sizes in the file and environment accept human-readable strings
// ("256MB", "1GB").
package config
