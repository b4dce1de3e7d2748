// internal/media/errors.go
package media

import "errors"

var (
	ErrSourceAudioMissing = errors.New("no source audio found for lobby")
	ErrPartNotFound       = errors.New("no such audio part for lobby")
	ErrNoPartsAvailable   = errors.New("no audio parts found to process")
	ErrInvalidPartIndex   = errors.New("part index can not be negative")
	ErrPartExists         = errors.New("audio part already exists")
)
