package storage

// Config holds image storage configuration
type Config struct {
	Dir          string   // root upload directory, served under URLPrefix
	URLPrefix    string   // e.g. "/uploads"
	MaxBytes     int64    // per-file limit
	AllowedTypes []string // accepted content types
}
