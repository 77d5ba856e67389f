package report

import (
	"errors"
	"fmt"
)

// ErrNegativeDuration marks an outcome constructed with a negative elapsed time.
var ErrNegativeDuration = errors.New("negative duration")

// Encoded is the outcome of one job: where it came from, where it went,
// whether it worked, and how long the phases took. Durations are whole
// seconds. ArchiveSeconds is -1 until archiving happens.
type Encoded struct {
	Source          string
	Destination     string
	Success         bool
	ErrText         string
	TotalSeconds    int
	EncodingSeconds int
	ArchiveSeconds  int
}

// NewEncoded builds an outcome record. Negative durations are a hard error.
func NewEncoded(source, destination string, success bool, errText string, totalSeconds, encodingSeconds int) (Encoded, error) {
	if totalSeconds < 0 || encodingSeconds < 0 {
		return Encoded{}, fmt.Errorf("%w: total=%d encoding=%d", ErrNegativeDuration, totalSeconds, encodingSeconds)
	}
	return Encoded{
		Source:          source,
		Destination:     destination,
		Success:         success,
		ErrText:         errText,
		TotalSeconds:    totalSeconds,
		EncodingSeconds: encodingSeconds,
		ArchiveSeconds:  -1,
	}, nil
}

// SetArchiveSeconds records the archive phase duration after the fact.
func (e *Encoded) SetArchiveSeconds(seconds int) error {
	if seconds < 0 {
		return fmt.Errorf("%w: archive=%d", ErrNegativeDuration, seconds)
	}
	e.ArchiveSeconds = seconds
	return nil
}

// TotalElapsed renders the total duration as MM:SS, or HH:MM:SS past an hour.
func (e Encoded) TotalElapsed() string {
	return clock(e.TotalSeconds)
}

// EncodingElapsed renders the encode duration as MM:SS, or HH:MM:SS past an hour.
func (e Encoded) EncodingElapsed() string {
	return clock(e.EncodingSeconds)
}

func clock(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
