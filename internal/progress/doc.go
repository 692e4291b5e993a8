// Package progress provides human-readable formatting and parsing of
// byte counts and durations for run summaries and configuration values.
package progress
