// Command resetpw manages the dashboard password from the command line.
//
// It supports the following operations:
//   - reset: Reset the dashboard password (requires existing password setup)
//   - status: Check if a password is configured
//
// Usage:
//
//	resetpw <command>
//
// Commands:
//
//	reset   Reset the password for the dashboard account. This requires
//	        that a password has already been set up via the web
//	        interface. All existing sessions will be invalidated.
//
//	status  Display whether a password is configured. If no password
//	        exists, initial setup must be done via the web interface.
//
// Environment:
//
//	DATABASE_DIR - Path to database directory (default: /database)
//
// Notes:
//
// The dashboard uses a single-user authentication model. Initial
// password setup must be performed through the web interface. This
// utility is only for resetting an existing password or checking
// configuration status.
package main
