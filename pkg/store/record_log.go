package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
)

const (
	// DataFileName is the active log file inside the data directory
	DataFileName = "records.log"
	// DefaultMaxPayloadSize applies when the config leaves it unset
	DefaultMaxPayloadSize = 64 * 1024
)

var _ RecordStore = (*RecordLog)(nil)

// RecordLog is an append-only store of encoded records with an in-memory
// index from record id to log offset
type RecordLog struct {
	config   RecordLogConfig
	writer   *LogWriter
	reader   *LogReader
	index    *HashIndex
	dataFile string
	logger   zerolog.Logger
	mutex    sync.Mutex
	isOpen   bool
}

// NewRecordLog creates a new record log instance
func NewRecordLog(config RecordLogConfig) (*RecordLog, error) {
	if err := os.MkdirAll(config.DataDir, 0750); err != nil {
		return nil, err
	}
	if config.MaxPayloadSize <= 0 {
		config.MaxPayloadSize = DefaultMaxPayloadSize
	}

	return &RecordLog{
		config:   config,
		dataFile: filepath.Join(config.DataDir, DataFileName),
		index:    NewHashIndex(),
		logger:   config.Logger.With().Str("component", "record_log").Logger(),
	}, nil
}

// Open validates the log, truncates a damaged tail and rebuilds the index
func (rl *RecordLog) Open() (*RecoveryResult, error) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if rl.isOpen {
		return &RecoveryResult{}, nil
	}

	recovery, err := rl.validateLogFile(rl.dataFile)
	if err != nil {
		return nil, err
	}

	writer, err := NewLogWriter(LogWriterConfig{
		FilePath:       rl.dataFile,
		FsyncInterval:  rl.config.FsyncInterval,
		BufferSize:     64 * 1024,
		MaxPayloadSize: rl.config.MaxPayloadSize,
	})
	if err != nil {
		return nil, err
	}
	rl.writer = writer

	reader, err := NewLogReader(LogReaderConfig{FilePath: rl.dataFile})
	if err != nil {
		_ = rl.writer.Close()
		return nil, err
	}
	rl.reader = reader

	if err := rl.index.BuildFromLog(rl.reader); err != nil {
		_ = rl.reader.Close()
		_ = rl.writer.Close()
		return nil, err
	}

	rl.isOpen = true
	rl.logger.Info().
		Str("file", rl.dataFile).
		Int64("records_validated", recovery.RecordsValidated).
		Int64("bytes_truncated", recovery.BytesTruncated).
		Int("records", rl.index.Size()).
		Dur("recovery_time", recovery.RecoveryTime).
		Msg("record log opened")
	return recovery, nil
}

// Put stores payload under a new id
func (rl *RecordLog) Put(schema string, payload []byte) (ksuid.KSUID, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return ksuid.Nil, err
	}
	if err := rl.PutWithID(id, schema, payload); err != nil {
		return ksuid.Nil, err
	}
	return id, nil
}

// PutWithID stores payload under id, replacing any previous record
func (rl *RecordLog) PutWithID(id ksuid.KSUID, schema string, payload []byte) error {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if !rl.isOpen {
		return ErrStoreClosed
	}
	if id == ksuid.Nil {
		return ErrInvalidID
	}

	frame, err := NewRecordFrame(id, schema, payload, rl.config.MaxPayloadSize)
	if err != nil {
		return err
	}

	offset, size, err := rl.writer.Append(frame)
	if err != nil {
		return err
	}

	rl.index.Put(id, &IndexEntry{
		Offset:    offset,
		Size:      size,
		Timestamp: frame.Timestamp.Get(),
		Schema:    schema,
	})
	rl.logger.Debug().Str("id", id.String()).Str("schema", schema).Uint32("size", size).Msg("record stored")
	return nil
}

// Get returns the live record stored under id
func (rl *RecordLog) Get(id ksuid.KSUID) (*Record, error) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if !rl.isOpen {
		return nil, ErrStoreClosed
	}

	entry, exists := rl.index.Get(id)
	if !exists {
		return nil, ErrRecordNotFound
	}

	// Entries still in the write buffer are invisible to the reader
	if err := rl.writer.Flush(); err != nil {
		return nil, err
	}

	frame, err := rl.reader.ReadAt(entry.Offset)
	if err != nil {
		return nil, err
	}
	if frame.Tombstone() {
		return nil, ErrRecordNotFound
	}
	return frame.Record(), nil
}

// Delete appends a tombstone for id
func (rl *RecordLog) Delete(id ksuid.KSUID) error {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if !rl.isOpen {
		return ErrStoreClosed
	}
	if _, exists := rl.index.Get(id); !exists {
		return ErrRecordNotFound
	}

	frame, err := NewTombstoneFrame(id, rl.config.MaxPayloadSize)
	if err != nil {
		return err
	}
	if _, _, err := rl.writer.Append(frame); err != nil {
		return err
	}

	rl.index.Delete(id)
	rl.logger.Debug().Str("id", id.String()).Msg("record deleted")
	return nil
}

// List returns every live record in id order
func (rl *RecordLog) List() ([]Entry, error) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if !rl.isOpen {
		return nil, ErrStoreClosed
	}

	ids := rl.index.IDs()
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		e, ok := rl.index.Get(id)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			ID:        id,
			Schema:    e.Schema,
			Size:      int(e.Size),
			Timestamp: time.Unix(0, int64(e.Timestamp)),
		})
	}
	return entries, nil
}

// Stats returns store statistics
func (rl *RecordLog) Stats() Stats {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	stats := Stats{Engine: "log"}
	if !rl.isOpen {
		return stats
	}
	stats.Records = rl.index.Size()
	stats.Tombstones = rl.index.Tombstones()
	stats.DataSize = rl.writer.Size()
	return stats
}

// Close shuts down the store
func (rl *RecordLog) Close() error {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if !rl.isOpen {
		return nil
	}
	rl.isOpen = false

	if err := rl.writer.Close(); err != nil {
		_ = rl.reader.Close()
		return err
	}
	return rl.reader.Close()
}

// validateLogFile reads every entry and truncates the file at the first
// torn or damaged one. Entries larger than the current payload limit are
// kept; the limit applies to new writes only.
func (rl *RecordLog) validateLogFile(filePath string) (*RecoveryResult, error) {
	startTime := time.Now()

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &RecoveryResult{
				IndexRebuilt: true,
				RecoveryTime: time.Since(startTime),
			}, nil
		}
		return nil, err
	}
	fileSizeBefore := fileInfo.Size()

	reader, err := NewLogReader(LogReaderConfig{FilePath: filePath})
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var recordsValidated int64
	var lastValidOffset int64
	var corruption error

	for {
		if _, err := reader.ReadNext(); err != nil {
			if err != io.EOF {
				corruption = err
			}
			break
		}
		recordsValidated++
		lastValidOffset = reader.Offset()
	}

	fileSizeAfter := fileSizeBefore
	if corruption != nil {
		if !errors.Is(corruption, ErrCorruption) {
			return nil, corruption
		}
		if err := os.Truncate(filePath, lastValidOffset); err != nil {
			return nil, fmt.Errorf("truncate damaged log: %w", err)
		}
		fileSizeAfter = lastValidOffset
		rl.logger.Warn().
			Err(corruption).
			Int64("offset", lastValidOffset).
			Int64("bytes_truncated", fileSizeBefore-lastValidOffset).
			Msg("truncated damaged log tail")
	}

	return &RecoveryResult{
		RecordsValidated: recordsValidated,
		BytesTruncated:   fileSizeBefore - fileSizeAfter,
		FileSizeBefore:   fileSizeBefore,
		FileSizeAfter:    fileSizeAfter,
		IndexRebuilt:     true,
		RecoveryTime:     time.Since(startTime),
	}, nil
}
