//go:build libmpv

package player

import (
	"errors"
	"fmt"
	"sync"

	mpv "github.com/gen2brain/go-mpv"
)

const (
	mpvPauseProperty    = "pause"
	mpvPositionProperty = "time-pos"
	mpvVolumeProperty   = "volume"
)

type mpvBackend struct {
	mu          sync.Mutex
	client      *mpv.Mpv
	onEOF       func()
	closeOnce   sync.Once
	closed      chan struct{}
	eventLoopWG sync.WaitGroup
}

func newPlaybackBackend() (playbackBackend, error) {
	client := mpv.New()
	if client == nil {
		return nil, errors.New("create libmpv instance")
	}

	_ = client.SetOptionString("terminal", "no")
	_ = client.SetOptionString("video", "no")
	_ = client.SetOptionString("audio-display", "no")
	_ = client.SetOptionString("keep-open", "no")

	if err := client.Initialize(); err != nil {
		client.TerminateDestroy()
		return nil, fmt.Errorf("initialize libmpv: %w", err)
	}

	backend := &mpvBackend{
		client: client,
		closed: make(chan struct{}),
	}

	_ = client.RequestEvent(mpv.EventEnd, true)
	_ = client.SetProperty(mpvVolumeProperty, mpv.FormatDouble, float64(defaultVolume))

	backend.eventLoopWG.Add(1)
	go backend.eventLoop()

	return backend, nil
}

func (b *mpvBackend) Load(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.client.SetPropertyString(mpvPauseProperty, "yes"); err != nil {
		return fmt.Errorf("set pause before load: %w", err)
	}

	if err := b.client.Command([]string{"loadfile", path, "replace"}); err != nil {
		return fmt.Errorf("load file %q: %w", path, err)
	}

	return nil
}

func (b *mpvBackend) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.client.SetPropertyString(mpvPauseProperty, "no"); err != nil {
		return fmt.Errorf("resume playback: %w", err)
	}

	return nil
}

func (b *mpvBackend) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.client.SetPropertyString(mpvPauseProperty, "yes"); err != nil {
		return fmt.Errorf("pause playback: %w", err)
	}

	return nil
}

func (b *mpvBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.client.Command([]string{"stop"}); err != nil {
		return fmt.Errorf("stop playback: %w", err)
	}

	return nil
}

func (b *mpvBackend) Seek(positionSec int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.client.SetProperty(mpvPositionProperty, mpv.FormatDouble, float64(positionSec)); err != nil {
		return fmt.Errorf("seek playback: %w", err)
	}

	return nil
}

func (b *mpvBackend) SetVolume(volume int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.client.SetProperty(mpvVolumeProperty, mpv.FormatDouble, float64(volume)); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}

	return nil
}

func (b *mpvBackend) SetOnEOF(callback func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onEOF = callback
}

func (b *mpvBackend) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		client := b.client
		b.mu.Unlock()

		if client != nil {
			client.Wakeup()
			client.TerminateDestroy()
		}

		b.eventLoopWG.Wait()
		close(b.closed)
	})

	<-b.closed
	return nil
}

func (b *mpvBackend) eventLoop() {
	defer b.eventLoopWG.Done()

	for {
		event := b.client.WaitEvent(0.5)
		if event == nil {
			continue
		}

		switch event.EventID {
		case mpv.EventShutdown:
			return
		case mpv.EventEnd:
			end := event.EndFile()
			if end.Reason != mpv.EndFileEOF {
				continue
			}

			b.mu.Lock()
			onEOF := b.onEOF
			b.mu.Unlock()
			if onEOF != nil {
				onEOF()
			}
		}
	}
}
