// Package logging provides leveled logging for the duplicate scanner
// service. The level is controlled by the DEBUG and LOG_LEVEL
// environment variables and resolved once at first use.
package logging
