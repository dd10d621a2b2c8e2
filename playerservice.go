package main

import (
	"context"

	"github.com/zevinDev/wora/internal/player"
)

type PlayerService struct {
	player *player.Service
}

func NewPlayerService(playerService *player.Service) *PlayerService {
	return &PlayerService{player: playerService}
}

func (s *PlayerService) GetState() player.State {
	return s.player.GetState()
}

func (s *PlayerService) SetQueue(songIDs []int64, startIndex int) (player.State, error) {
	return s.player.SetQueue(context.Background(), songIDs, startIndex)
}

func (s *PlayerService) Play() (player.State, error) {
	return s.player.Play()
}

func (s *PlayerService) Pause() (player.State, error) {
	return s.player.Pause()
}

func (s *PlayerService) TogglePlayback() (player.State, error) {
	return s.player.TogglePlayback()
}

func (s *PlayerService) Stop() (player.State, error) {
	return s.player.Stop()
}

func (s *PlayerService) Next() (player.State, error) {
	return s.player.Next()
}

func (s *PlayerService) Previous() (player.State, error) {
	return s.player.Previous()
}

func (s *PlayerService) Seek(positionSec int) (player.State, error) {
	return s.player.Seek(positionSec)
}

func (s *PlayerService) SetVolume(volume int) (player.State, error) {
	return s.player.SetVolume(volume)
}
