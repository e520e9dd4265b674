package scenario

import "errors"

var (
	ErrNotFound          = errors.New("scenario file not found")
	ErrUnsupportedFormat = errors.New("unsupported scenario format")
	ErrInvalidFormat     = errors.New("invalid scenario format")
	ErrMissingEnvVar     = errors.New("missing environment variable")
	ErrUnknownScenario   = errors.New("unknown scenario")
	ErrInvalidScenario   = errors.New("invalid scenario")
)
