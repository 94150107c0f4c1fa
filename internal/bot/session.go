package bot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pending text-input states. A non-empty Session.Action means the next
// plain message from that user is consumed as input for it.
const (
	pendingAddStudent      = "add_student"
	pendingLectureName     = "lecture_name"
	pendingLectureFile     = "lecture_file"
	pendingCategory        = "category"
	pendingCategoryForNew  = "category_for_lecture"
	pendingStudentSchedule = "student_schedule"
	pendingStudentHomework = "student_homework"
	pendingOwnSchedule     = "own_schedule"
)

// Session carries per-chat conversation state between updates.
type Session struct {
	Action          string
	ViewStudentID   int64
	EditStudentID   int64
	LectureName     string
	LectureCategory string
	UpdatedAt       time.Time
}

// ClearPending drops the pending input state but keeps impersonation.
func (s *Session) ClearPending() {
	s.Action = ""
	s.EditStudentID = 0
	s.LectureName = ""
	s.LectureCategory = ""
}

// SessionStore keeps sessions in memory and expires idle ones so that
// abandoned prompts do not pin state forever.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	ttl      time.Duration
	logger   *zap.Logger
}

// NewSessionStore constructs a store with the given idle TTL.
func NewSessionStore(ttl time.Duration, logger *zap.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		logger:   logger,
	}
}

// Get returns the session for the user, creating one if needed. Every
// access refreshes the idle timer.
func (s *SessionStore) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok || time.Since(sess.UpdatedAt) > s.ttl {
		sess = &Session{}
		s.sessions[userID] = sess
	}
	sess.UpdatedAt = time.Now()
	return sess
}

// Reset drops the user's session entirely.
func (s *SessionStore) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len reports how many sessions are currently held.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes expired sessions and returns how many were dropped.
func (s *SessionStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if time.Since(sess.UpdatedAt) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor runs Cleanup on the given interval until ctx is done.
func (s *SessionStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Cleanup(); n > 0 {
					s.logger.Debug("expired sessions removed", zap.Int("count", n))
				}
			}
		}
	}()
}
