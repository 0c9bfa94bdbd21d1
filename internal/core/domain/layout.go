package domain

import "path/filepath"

const (
	// PyProdDirName is the name of the internal metadata directory.
	PyProdDirName = ".pyprod"

	// CheckStoreDirName is the name of the check-value store directory.
	CheckStoreDirName = "checks"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// EnvDirName is the name of the script-host environment cache directory.
	EnvDirName = "env"

	// DefaultDeclFileName is the default name of the declarative build file,
	// used as the CLI's -f flag default.
	DefaultDeclFileName = "pyprod.yaml"

	// DebugLogFile is the name of the debug log file.
	DebugLogFile = "debug.log"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultPyProdPath returns the default root directory for pyprod metadata.
func DefaultPyProdPath() string {
	return PyProdDirName
}

// DefaultCheckStorePath returns the default path for the check-value store.
// It joins .pyprod and checks.
func DefaultCheckStorePath() string {
	return filepath.Join(PyProdDirName, CheckStoreDirName)
}

// DefaultEnvCachePath returns the default path for the script-host environment cache.
// It joins .pyprod, cache, and env.
func DefaultEnvCachePath() string {
	return filepath.Join(PyProdDirName, CacheDirName, EnvDirName)
}

// DefaultDebugLogPath returns the default path for the debug log.
// It joins .pyprod and debug.log.
func DefaultDebugLogPath() string {
	return filepath.Join(PyProdDirName, DebugLogFile)
}
