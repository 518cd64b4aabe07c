package fluxmesh

import "errors"

// ErrAlreadyStarted is returned by Start on a non-idle flux. Starting a
// terminal instance is a usage error, never a silent restart.
var ErrAlreadyStarted = errors.New("flux: already started")

// ErrNotFlowing is returned by Invoke when the flux is not currently
// draining a source.
var ErrNotFlowing = errors.New("flux: not flowing")
