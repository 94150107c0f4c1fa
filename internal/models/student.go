package models

import "time"

// Student represents a learner the tutor works with. The record is
// stored as a single JSON value keyed by the Telegram user ID.
type Student struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Schedule  string    `json:"schedule"`
	Homework  string    `json:"homework,omitempty"`
	Lectures  []string  `json:"lectures"`
	CreatedAt time.Time `json:"created_at"`
}

// HasLecture reports whether the lecture is already granted to the student.
func (s *Student) HasLecture(lectureID string) bool {
	for _, id := range s.Lectures {
		if id == lectureID {
			return true
		}
	}
	return false
}
