package store

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
)

// IndexEntry represents the location of a record in the log
type IndexEntry struct {
	Offset    int64  // Byte offset of the entry's length prefix
	Size      uint32 // Size of the entry including its length prefix
	Timestamp uint64 // Frame timestamp
	Schema    string // Schema of the stored record
}

// LogWriterConfig holds configuration for the log writer
type LogWriterConfig struct {
	FilePath       string        // Path to the active data file
	FsyncInterval  time.Duration // How often to fsync (0 = every write)
	BufferSize     int           // Write buffer size
	MaxPayloadSize int           // Largest record payload accepted
}

// LogReaderConfig holds configuration for the log reader
type LogReaderConfig struct {
	FilePath    string // Path to the data file
	StartOffset int64  // Offset to start reading from
}

// RecordLogConfig holds configuration for the record log
type RecordLogConfig struct {
	DataDir        string        // Directory for data files
	FsyncInterval  time.Duration // Fsync interval for durability
	MaxPayloadSize int           // Largest record payload accepted
	Logger         zerolog.Logger
}

// Record is a stored, encoded record
type Record struct {
	ID        ksuid.KSUID
	Schema    string
	Payload   []byte
	Timestamp time.Time
}

// Entry describes a stored record without its payload
type Entry struct {
	ID        ksuid.KSUID `json:"id"`
	Schema    string      `json:"schema"`
	Size      int         `json:"size"`
	Timestamp time.Time   `json:"timestamp"`
}

// Stats holds statistics about a record store
type Stats struct {
	Engine     string `json:"engine"`
	Records    int    `json:"records"`
	Tombstones int    `json:"tombstones"`
	DataSize   int64  `json:"data_size"`
}

// RecoveryResult reports what Open found while validating the log
type RecoveryResult struct {
	RecordsValidated int64
	BytesTruncated   int64
	FileSizeBefore   int64
	FileSizeAfter    int64
	IndexRebuilt     bool
	RecoveryTime     time.Duration
}

// RecordStore is implemented by every storage engine
type RecordStore interface {
	Put(schema string, payload []byte) (ksuid.KSUID, error)
	Get(id ksuid.KSUID) (*Record, error)
	Delete(id ksuid.KSUID) error
	List() ([]Entry, error)
	Stats() Stats
	Close() error
}

// RecordIterator provides streaming access to frames
type RecordIterator interface {
	Next() bool
	Frame() *Frame
	Offset() int64 // Offset of the current frame's entry
	Err() error
	Close() error
}

// Errors
var (
	ErrRecordNotFound = &StoreError{"record not found"}
	ErrInvalidID      = &StoreError{"invalid record id"}
	ErrCorruption     = &StoreError{"data corruption detected"}
	ErrStoreClosed    = &StoreError{"store is not open"}
)

// StoreError represents a record store error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}
