package models

import "time"

// IndexStats describes the reference index currently being served
type IndexStats struct {
	Loaded      bool      `json:"loaded"`
	Generation  uint64    `json:"generation"`
	Records     int       `json:"records"`
	Buckets     int       `json:"buckets"`
	Countries   int       `json:"countries"`
	Entities    int       `json:"entities"`
	BuiltAt     time.Time `json:"built_at,omitempty"`
	LoadSeconds float64   `json:"load_seconds"`
}
