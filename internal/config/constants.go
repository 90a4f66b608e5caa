package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./sudarmaa.db"

	// DefaultMediaDir is where uploaded book icons are stored
	DefaultMediaDir = "./media"

	// DefaultMaxIconBytes caps a single icon upload (2 MiB)
	DefaultMaxIconBytes = 2 << 20
)
