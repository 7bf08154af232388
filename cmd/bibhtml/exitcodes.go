package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (bad config file, index not built)
	ExitDataError   = 3 // Data error (malformed bibliography, check found problems)
)
