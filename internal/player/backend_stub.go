//go:build !libmpv

package player

import "errors"

func newPlaybackBackend() (playbackBackend, error) {
	return nil, errors.New("built without libmpv support")
}
