package modhost

import (
	"errors"
)

// Engine errors
var (
	// Host/orchestrator errors
	ErrHostNotInitialized = errors.New("mod host not initialized")
	ErrLoggerNil          = errors.New("logger is nil")

	// Identity and manifest errors
	ErrInvalidVersion      = errors.New("invalid mod version")
	ErrInvalidVersionRange = errors.New("invalid dependency version range")
	ErrManifestMissing     = errors.New("mod manifest not found")
	ErrManifestParse       = errors.New("failed to parse mod manifest")
	ErrManifestNameEmpty   = errors.New("mod manifest has empty name")

	// Registry and status errors
	ErrModNotFound      = errors.New("mod not found in registry")
	ErrInvalidModStatus = errors.New("invalid mod status value")
	ErrModNotFailed     = errors.New("mod is not in a failed state")
	ErrModNotEnabled    = errors.New("mod is not enabled")

	// Dependency errors
	ErrHardDepsUnmet = errors.New("hard dependencies unmet")

	// Code unit errors
	ErrEntryPointMissing   = errors.New("no mod entry point found in code artifact")
	ErrEntryPointAmbiguous = errors.New("multiple mod entry points found in code artifact")
	ErrArtifactNotFound    = errors.New("code artifact not found")
	ErrUnitNotLoaded       = errors.New("code unit is not loaded")

	// Host state errors
	ErrHostStateParse = errors.New("failed to parse host state file")
)
