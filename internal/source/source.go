// Package source holds the data collaborators that fetch a building's
// floors: the building HTTP API, Postgres, and a YAML fixture file.
package source

import "errors"

// ErrBuildingNotFound is returned when the backing source has no record of
// the requested building.
var ErrBuildingNotFound = errors.New("building not found")
