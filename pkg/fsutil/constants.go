package fsutil

// Permission bits used for everything fetchd writes.
const (
	FileModeDefault = 0o644 // -rw-r--r--: downloaded files and the config file
	DirModeDefault  = 0o755 // drwxr-xr-x: destination parent directories
	DirModeSecure   = 0o750 // drwxr-x---: the config directory
)
