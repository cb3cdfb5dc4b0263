package material

import (
	"errors"
	"fmt"

	"parkan-material/internal/binread"
)

var (
	// ErrNotFound indicates the archive has no item with the requested name.
	ErrNotFound = errors.New("material not found")

	// ErrTooManyAnimations indicates a descriptor declares more than MaxAnimations.
	ErrTooManyAnimations = errors.New("too many animations for material")

	// ErrResourceExhausted indicates the descriptor table is full.
	ErrResourceExhausted = errors.New("descriptor table exhausted")

	// ErrFormat indicates a truncated or malformed payload.
	ErrFormat = binread.ErrFormat

	// ErrUnresolvedTexture indicates the texture resolver failed for a stage.
	ErrUnresolvedTexture = errors.New("unresolved texture")

	// ErrStageIndex indicates an animation key references a missing stage.
	ErrStageIndex = errors.New("stage index out of range")

	// ErrAnimationIndex indicates a request for an animation the descriptor lacks.
	ErrAnimationIndex = errors.New("animation index out of range")

	// ErrStaleHandle indicates a handle whose slot was released or recycled.
	ErrStaleHandle = errors.New("stale descriptor handle")
)

// StageIndexError reports the animation key that failed validation.
type StageIndexError struct {
	Animation int
	Key       int
	Stage     int
	Stages    int
}

func (e *StageIndexError) Error() string {
	return fmt.Sprintf("animation %d key %d: stage %d of %d: %v",
		e.Animation, e.Key, e.Stage, e.Stages, ErrStageIndex)
}

// Unwrap returns ErrStageIndex.
func (e *StageIndexError) Unwrap() error { return ErrStageIndex }
