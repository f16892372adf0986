// Package startup loads configuration from the environment, validates
// directories, and produces the structured startup/shutdown log the
// service prints at boot.
package startup
