package domain

import "go.trai.ch/zerr"

var (
	// ErrResolutionFailed is returned when an import name cannot be mapped to a source.
	ErrResolutionFailed = zerr.New("failed to resolve import")

	// ErrImportNotFound is returned by resolvers when no candidate location exists for a name.
	ErrImportNotFound = zerr.New("import not found")

	// ErrComputeTimeout is returned when a dispatched job does not finish within its budget.
	ErrComputeTimeout = zerr.New("computation timed out")

	// ErrComputeFailed is returned when a dispatched job fails without producing a document.
	ErrComputeFailed = zerr.New("computation failed")

	// ErrWatcherRegistrationFailed is returned when file watchers cannot be registered.
	ErrWatcherRegistrationFailed = zerr.New("failed to register file watcher")

	// ErrInvalidPattern is returned when a watch pattern is malformed.
	ErrInvalidPattern = zerr.New("invalid watch pattern")

	// ErrDispatcherClosed is returned when a job is submitted to a closed dispatcher.
	ErrDispatcherClosed = zerr.New("dispatcher is closed")

	// ErrWorkerProtocol is returned when a worker process produces an unusable response.
	ErrWorkerProtocol = zerr.New("invalid worker response")

	// ErrWorkerNotConfigured is returned when a worker command is required but none is configured.
	ErrWorkerNotConfigured = zerr.New("no worker command configured")

	// ErrDocumentOpenFailed is returned when a text document cannot be opened.
	ErrDocumentOpenFailed = zerr.New("failed to open document")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when the config file contains invalid values.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrManagerClosed is returned when the imports manager is used after Close.
	ErrManagerClosed = zerr.New("imports manager is closed")

	// ErrUnknownImportKind is returned when an import kind string is not recognized.
	ErrUnknownImportKind = zerr.New("unknown import kind, expected 'library', 'resource' or 'variables'")
)
