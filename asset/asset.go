// Package asset resolves asset paths to opaque handles. The simulation only
// ever stores handles; decoded data stays in the Library and is read by the
// presentation side.
package asset

import (
	"errors"
	"strconv"
)

var (
	ErrAssetNotFound    = errors.New("asset: not found")
	ErrAssetCorrupt     = errors.New("asset: corrupt")
	ErrAssetUnavailable = errors.New("asset: unavailable")
)

// Handle identifies a loaded asset. The zero Handle refers to nothing.
type Handle uint32

func (h Handle) Valid() bool {
	return h != 0
}

func (h Handle) String() string {
	return "asset#" + strconv.FormatUint(uint64(h), 10)
}

// Loader resolves a path to a handle.
type Loader interface {
	Load(path string) (Handle, error)
}
