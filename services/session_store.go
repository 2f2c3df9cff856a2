package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nawawimhz/surat-generator/models"
)

type sessionKey struct {
	draft      string
	letterType models.LetterType
}

// SessionStore keeps one LetterSession per draft and letter type in memory.
type SessionStore struct {
	pipeline *Pipeline

	mu       sync.Mutex
	sessions map[sessionKey]*LetterSession
}

func NewSessionStore(p *Pipeline) *SessionStore {
	return &SessionStore{
		pipeline: p,
		sessions: make(map[sessionKey]*LetterSession),
	}
}

// Get returns the session for the draft, creating a fresh one if needed.
func (st *SessionStore) Get(draftID string, t models.LetterType) (*LetterSession, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	key := sessionKey{draft: draftID, letterType: t}
	if s, ok := st.sessions[key]; ok {
		return s, nil
	}

	s, err := st.pipeline.NewSession(draftID+":"+string(t), t)
	if err != nil {
		return nil, err
	}
	st.sessions[key] = s
	return s, nil
}

// Discard drops the session. Pending QR results are ignored.
func (st *SessionStore) Discard(draftID string, t models.LetterType) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, sessionKey{draft: draftID, letterType: t})
}

func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for longer than maxIdle and returns how many
// were removed. Sessions in the middle of an export are kept.
func (st *SessionStore) Sweep(maxIdle time.Duration) int {
	cutoff := st.pipeline.now().Add(-maxIdle)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for key, s := range st.sessions {
		if s.State() == StateExporting {
			continue
		}
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, key)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (st *SessionStore) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(maxIdle); n > 0 {
				st.pipeline.Logger.Info("idle letter sessions removed", zap.Int("count", n))
			}
		}
	}
}
