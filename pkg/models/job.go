package models

import "time"

// JobRecord describes an open position. It is owned by the job catalog and is
// read-only to the pipeline.
type JobRecord struct {
	ID          string    `yaml:"id"           json:"id"`
	Title       string    `yaml:"title"        json:"title"`
	Description string    `yaml:"description"  json:"description"`
	Category    string    `yaml:"category"     json:"category"`
	PostedDate  time.Time `yaml:"posted_date"  json:"posted_date"`
}
