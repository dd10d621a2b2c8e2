package player

const defaultVolume = 80

// playbackBackend abstracts the audio output. The libmpv implementation is
// selected with the libmpv build tag; without it playback state is tracked
// by the service's ticker alone.
type playbackBackend interface {
	Load(path string) error
	Play() error
	Pause() error
	Stop() error
	Seek(positionSec int) error
	SetVolume(volume int) error
	SetOnEOF(callback func())
	Close() error
}
