package dynamics

import "errors"

var (
	ErrBodyExists         = errors.New("body already added")
	ErrBodyNotFound       = errors.New("body not in world")
	ErrJointExists        = errors.New("joint already added")
	ErrJointNotFound      = errors.New("joint not in world")
	ErrWorldLocked        = errors.New("world is locked")
	ErrSameBody           = errors.New("joint connects a body to itself")
	ErrInvalidJoint       = errors.New("invalid joint definition")
	ErrFixtureNotOwned    = errors.New("fixture belongs to another body")
	ErrControllerExists   = errors.New("controller already added")
	ErrControllerNotFound = errors.New("controller not in world")
)
