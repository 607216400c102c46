package models

import "time"

// AccessRecord describes one request/response exchange
type AccessRecord struct {
	ID         string        `json:"id"`
	ConnID     string        `json:"conn_id"`
	RemoteAddr string        `json:"remote_addr"`
	Method     string        `json:"method"`
	Path       string        `json:"path"`
	Status     int           `json:"status"`
	Bytes      int64         `json:"bytes"`
	Duration   time.Duration `json:"duration"`
	CreatedAt  time.Time     `json:"created_at"`
}
