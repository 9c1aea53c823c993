package core

// janitor.go evicts browser sessions nobody has looked at for SessionTTL.
//
// State lives only in memory, so without eviction every visitor would keep
// a controller forever. A session with a file being read or a run in
// progress is never evicted.

import (
	"context"
	"log/slog"
	"time"
)

// StartSessionJanitor sweeps idle sessions every interval until ctx is done.
func (s *Service) StartSessionJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	slog.Info("session janitor started",
		"interval", interval.String(),
		"ttl", s.opts.SessionTTL.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

// sweep removes sessions idle since before now-SessionTTL and returns how many.
func (s *Service) sweep(now time.Time) int {
	cutoff := now.Add(-s.opts.SessionTTL)

	var evicted []*Controller

	s.mu.Lock()
	for id, c := range s.sessions {
		if c.LastSeen().Before(cutoff) && !c.Busy() {
			evicted = append(evicted, c)
			delete(s.sessions, id)
		}
	}
	remaining := len(s.sessions)
	s.mu.Unlock()

	for _, c := range evicted {
		c.Close()
	}

	if len(evicted) > 0 {
		slog.Info("evicted idle sessions", "evicted", len(evicted), "remaining", remaining)
	}
	return len(evicted)
}
