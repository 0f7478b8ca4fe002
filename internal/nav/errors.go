package nav

import (
	"errors"
	"fmt"
)

var (
	ErrDisconnected    = errors.New("maps are not connected (warps don't count)")
	ErrNoRoute         = errors.New("no route exists")
	ErrSearchBudget    = errors.New("search budget exhausted")
	ErrInvalidLocation = errors.New("invalid location")
)

// PathFindingError is returned by CalculatePath for every failure. It carries
// both endpoints so callers can report, retry from a new position or hand
// control back to the user.
type PathFindingError struct {
	Source          Location
	Destination     Location
	SourceName      string
	DestinationName string
	Err             error
}

func (e *PathFindingError) Error() string {
	return fmt.Sprintf("path from (%s @ %s) to (%s @ %s): %v",
		e.Source.Local, e.SourceName, e.Destination.Local, e.DestinationName, e.Err)
}

func (e *PathFindingError) Unwrap() error { return e.Err }
