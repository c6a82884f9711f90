package team

import "errors"

// ErrTeamNotFound is returned when no team matches the lookup.
var ErrTeamNotFound = errors.New("team not found")

// ErrTargetNotFound is returned when removing a target that is not on the list.
var ErrTargetNotFound = errors.New("target not found")
