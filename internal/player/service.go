package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zevinDev/wora/internal/library"
)

const EventStateChanged = "player:state"

const (
	StatusStopped = "stopped"
	StatusPaused  = "paused"
	StatusPlaying = "playing"
)

type Emitter func(eventName string, payload any)

// Listener observes playback for side effects such as scrobbling.
type Listener interface {
	OnTrackStart(song library.Song, startedAt time.Time)
	OnProgress(song library.Song, positionSec int, startedAt time.Time)
}

type State struct {
	Status       string        `json:"status"`
	PositionSec  int           `json:"positionSec"`
	Volume       int           `json:"volume"`
	CurrentSong  *library.Song `json:"currentSong,omitempty"`
	CurrentIndex int           `json:"currentIndex"`
	QueueLength  int           `json:"queueLength"`
	UpdatedAt    string        `json:"updatedAt"`
}

// Service tracks an in-memory play queue of songs and drives the optional
// libmpv backend. Position advances on a per-second ticker.
type Service struct {
	mu          sync.Mutex
	songs       *library.SongRepository
	backend     playbackBackend
	emit        Emitter
	listeners   []Listener
	queue       []library.Song
	index       int
	status      string
	positionSec int
	volume      int
	startedAt   time.Time
	updatedAt   time.Time
	tickStop    chan struct{}
}

func NewService(songRepo *library.SongRepository) *Service {
	service := &Service{
		songs:  songRepo,
		index:  -1,
		status: StatusStopped,
		volume: defaultVolume,
	}

	backend, err := newPlaybackBackend()
	if err != nil {
		log.Debug().Err(err).Msg("player: running without audio backend")
	} else {
		service.backend = backend
		backend.SetOnEOF(func() {
			_, _ = service.Next()
		})
	}

	return service
}

func (s *Service) SetEmitter(emitter Emitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emit = emitter
}

func (s *Service) AddListener(listener Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *Service) Close() error {
	s.mu.Lock()
	s.stopTickerLocked()
	backend := s.backend
	s.mu.Unlock()

	if backend != nil {
		return backend.Close()
	}
	return nil
}

// SetQueue replaces the play queue with the given song ids and starts
// playing from startIndex.
func (s *Service) SetQueue(ctx context.Context, songIDs []int64, startIndex int) (State, error) {
	if len(songIDs) == 0 {
		return s.GetState(), errors.New("queue is empty")
	}
	if startIndex < 0 || startIndex >= len(songIDs) {
		startIndex = 0
	}

	queue := make([]library.Song, 0, len(songIDs))
	for _, id := range songIDs {
		song, err := s.songs.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, library.ErrSongNotFound) {
				continue
			}
			return s.GetState(), err
		}
		queue = append(queue, song)
	}
	if len(queue) == 0 {
		return s.GetState(), errors.New("no playable songs in queue")
	}
	if startIndex >= len(queue) {
		startIndex = 0
	}

	s.mu.Lock()
	s.queue = queue
	s.mu.Unlock()

	return s.playIndex(startIndex)
}

func (s *Service) Play() (State, error) {
	s.mu.Lock()
	if s.index < 0 || s.index >= len(s.queue) {
		s.mu.Unlock()
		return s.GetState(), errors.New("no song selected")
	}
	s.status = StatusPlaying
	s.updatedAt = time.Now().UTC()
	s.ensureTickerLocked()
	backend := s.backend
	s.mu.Unlock()

	if backend != nil {
		if err := backend.Play(); err != nil {
			log.Warn().Err(err).Msg("player: resume failed")
		}
	}

	state := s.GetState()
	s.emitState(state)
	return state, nil
}

func (s *Service) Pause() (State, error) {
	s.mu.Lock()
	s.status = StatusPaused
	s.updatedAt = time.Now().UTC()
	s.stopTickerLocked()
	backend := s.backend
	s.mu.Unlock()

	if backend != nil {
		if err := backend.Pause(); err != nil {
			log.Warn().Err(err).Msg("player: pause failed")
		}
	}

	state := s.GetState()
	s.emitState(state)
	return state, nil
}

func (s *Service) TogglePlayback() (State, error) {
	if s.GetState().Status == StatusPlaying {
		return s.Pause()
	}

	return s.Play()
}

func (s *Service) Stop() (State, error) {
	s.mu.Lock()
	s.status = StatusStopped
	s.positionSec = 0
	s.updatedAt = time.Now().UTC()
	s.stopTickerLocked()
	backend := s.backend
	s.mu.Unlock()

	if backend != nil {
		if err := backend.Stop(); err != nil {
			log.Warn().Err(err).Msg("player: stop failed")
		}
	}

	state := s.GetState()
	s.emitState(state)
	return state, nil
}

func (s *Service) Next() (State, error) {
	s.mu.Lock()
	nextIndex := s.index + 1
	hasNext := nextIndex < len(s.queue)
	s.mu.Unlock()

	if !hasNext {
		return s.Stop()
	}

	return s.playIndex(nextIndex)
}

func (s *Service) Previous() (State, error) {
	s.mu.Lock()
	positionSec := s.positionSec
	previousIndex := s.index - 1
	s.mu.Unlock()

	// Restart the current track unless we are within its first seconds.
	if positionSec > 3 || previousIndex < 0 {
		return s.Seek(0)
	}

	return s.playIndex(previousIndex)
}

func (s *Service) Seek(positionSec int) (State, error) {
	if positionSec < 0 {
		positionSec = 0
	}

	s.mu.Lock()
	if s.index < 0 || s.index >= len(s.queue) {
		s.mu.Unlock()
		return s.GetState(), errors.New("no song selected")
	}
	if duration := s.queue[s.index].Duration; duration > 0 && positionSec > duration {
		positionSec = duration
	}
	s.positionSec = positionSec
	s.updatedAt = time.Now().UTC()
	backend := s.backend
	s.mu.Unlock()

	if backend != nil {
		if err := backend.Seek(positionSec); err != nil {
			log.Warn().Err(err).Msg("player: seek failed")
		}
	}

	state := s.GetState()
	s.emitState(state)
	return state, nil
}

func (s *Service) SetVolume(volume int) (State, error) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}

	s.mu.Lock()
	s.volume = volume
	s.updatedAt = time.Now().UTC()
	backend := s.backend
	s.mu.Unlock()

	if backend != nil {
		if err := backend.SetVolume(volume); err != nil {
			log.Warn().Err(err).Msg("player: set volume failed")
		}
	}

	state := s.GetState()
	s.emitState(state)
	return state, nil
}

func (s *Service) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		Status:       s.status,
		PositionSec:  s.positionSec,
		Volume:       s.volume,
		CurrentIndex: s.index,
		QueueLength:  len(s.queue),
	}
	if s.index >= 0 && s.index < len(s.queue) {
		song := s.queue[s.index]
		state.CurrentSong = &song
	}
	if !s.updatedAt.IsZero() {
		state.UpdatedAt = s.updatedAt.UTC().Format(time.RFC3339)
	}

	return state
}

func (s *Service) playIndex(index int) (State, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.queue) {
		s.mu.Unlock()
		return s.GetState(), errors.New("queue index out of range")
	}

	song := s.queue[index]
	startedAt := time.Now().UTC()
	s.index = index
	s.positionSec = 0
	s.status = StatusPlaying
	s.startedAt = startedAt
	s.updatedAt = startedAt
	s.ensureTickerLocked()
	backend := s.backend
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	if backend != nil {
		if err := backend.Load(song.FilePath); err != nil {
			log.Warn().Err(err).Str("path", song.FilePath).Msg("player: load failed")
		} else if err := backend.Play(); err != nil {
			log.Warn().Err(err).Msg("player: start failed")
		}
	}

	for _, listener := range listeners {
		listener.OnTrackStart(song, startedAt)
	}

	state := s.GetState()
	s.emitState(state)
	return state, nil
}

func (s *Service) ensureTickerLocked() {
	if s.tickStop != nil {
		return
	}

	stop := make(chan struct{})
	s.tickStop = stop
	go s.runTicker(stop)
}

func (s *Service) stopTickerLocked() {
	if s.tickStop == nil {
		return
	}

	close(s.tickStop)
	s.tickStop = nil
}

func (s *Service) runTicker(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.onTick()
		}
	}
}

func (s *Service) onTick() {
	s.mu.Lock()
	if s.status != StatusPlaying || s.index < 0 || s.index >= len(s.queue) {
		s.mu.Unlock()
		return
	}

	s.positionSec++
	s.updatedAt = time.Now().UTC()
	song := s.queue[s.index]
	positionSec := s.positionSec
	startedAt := s.startedAt
	listeners := append([]Listener(nil), s.listeners...)
	// Only the ticker advances past the end when no backend delivers EOF.
	advance := s.backend == nil && song.Duration > 0 && positionSec >= song.Duration
	s.mu.Unlock()

	for _, listener := range listeners {
		listener.OnProgress(song, positionSec, startedAt)
	}

	if advance {
		_, _ = s.Next()
		return
	}

	s.emitState(s.GetState())
}

func (s *Service) emitState(state State) {
	s.mu.Lock()
	emitter := s.emit
	s.mu.Unlock()

	if emitter != nil {
		emitter(EventStateChanged, state)
	}
}
