package session

import "errors"

var (
	// ErrNoSession is returned by a Store when nothing is persisted.
	ErrNoSession = errors.New("session: no active session")
	// ErrUnknownRole is returned for roles outside the known set.
	ErrUnknownRole = errors.New("session: unknown role")
	// ErrInvalidSession is returned when logging in without a token or role.
	ErrInvalidSession = errors.New("session: token and role are required")
)
