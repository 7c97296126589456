package service

import (
	"sync"

	"github.com/set-night/primeminister/internal/domain"
)

// ChatStates keeps per-chat bot state in memory: the selected mode and
// whether a council session is already running for the chat.
type ChatStates struct {
	mu       sync.Mutex
	modes    map[int64]domain.Mode
	inFlight map[int64]bool
	fallback domain.Mode
}

func NewChatStates(fallback domain.Mode) *ChatStates {
	return &ChatStates{
		modes:    make(map[int64]domain.Mode),
		inFlight: make(map[int64]bool),
		fallback: fallback,
	}
}

// Mode returns the chat's selected mode, or the council default.
func (s *ChatStates) Mode(chatID int64) domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.modes[chatID]; ok {
		return m
	}
	return s.fallback
}

func (s *ChatStates) SetMode(chatID int64, mode domain.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes[chatID] = mode
}

// TryBegin marks a session as running for the chat. It returns false when
// one is already running.
func (s *ChatStates) TryBegin(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[chatID] {
		return false
	}
	s.inFlight[chatID] = true
	return true
}

func (s *ChatStates) End(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, chatID)
}
