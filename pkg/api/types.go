package api

import (
	"time"

	"github.com/segmentio/ksuid"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind          string
	Port          int
	APIKey        string
	MaxBodySize   int64         // Largest accepted request body
	StatsInterval time.Duration // How often store gauges are refreshed
}

// SchemaSummary is one entry of the schema listing
type SchemaSummary struct {
	Name            string `json:"name"`
	File            string `json:"file"`
	Props           int    `json:"props"`
	MaxSerialLength int    `json:"max_serial_length"`
}

// CreateRecordResponse is returned after a record is encoded and stored
type CreateRecordResponse struct {
	ID           ksuid.KSUID `json:"id"`
	Schema       string      `json:"schema"`
	SerialLength int         `json:"serial_length"`
}

// RecordResponse is a decoded record
type RecordResponse struct {
	ID           ksuid.KSUID    `json:"id"`
	Schema       string         `json:"schema"`
	SerialLength int            `json:"serial_length"`
	Timestamp    time.Time      `json:"timestamp"`
	Value        map[string]any `json:"value"`
}
