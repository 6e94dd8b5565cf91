package usecase

import "sync"

// TournamentLocks serialises writes per tournament. Two matches of the same
// round completing together must not both rewrite the next round, and team
// registration and lineup edits must not race match stats.
type TournamentLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewTournamentLocks() *TournamentLocks {
	return &TournamentLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock blocks until tournamentID is free and returns the matching unlock.
func (l *TournamentLocks) Lock(tournamentID string) func() {
	l.mu.Lock()
	m, ok := l.locks[tournamentID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[tournamentID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
