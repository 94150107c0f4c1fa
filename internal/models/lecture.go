package models

import "time"

// Lecture is the metadata record for an uploaded lecture. The attached
// file descriptor is stored separately and joined on read.
type Lecture struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Category string      `json:"category"`
	File     LectureFile `json:"file"`
}

// LectureFile describes where the uploaded document lives on disk.
type LectureFile struct {
	Filename  string    `json:"filename"`
	Filepath  string    `json:"filepath"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats aggregates store-wide counters for the admin console.
type Stats struct {
	Students  int   `json:"students"`
	Lectures  int64 `json:"lectures"`
	TotalKeys int64 `json:"total_keys"`
}
