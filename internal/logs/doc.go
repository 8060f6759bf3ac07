// Package logs reads the home-server log file for the CLI.
//
// It tails the last N lines with bounded memory and can follow the file
// by polling, restarting from the top when rotation truncates it. The
// follow loop stops when its context is canceled, so `logs --follow`
// exits cleanly on interrupt.
package logs
