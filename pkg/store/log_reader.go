package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ssargent/crunchybytes/pkg/codec"
)

// LogReader provides sequential and random access to frames in a log file
type LogReader struct {
	file     *os.File
	reader   *bufio.Reader
	offset int64
	config LogReaderConfig
}

// NewLogReader creates a new log reader for the specified file
func NewLogReader(config LogReaderConfig) (*LogReader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, io.SeekStart); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	return &LogReader{
		file:   file,
		reader: bufio.NewReader(file),
		offset: config.StartOffset,
		config: config,
	}, nil
}

// ReadNext reads the frame at the current offset. It returns io.EOF at a
// clean end of file and ErrCorruption for a torn or damaged entry.
func (r *LogReader) ReadNext() (*Frame, error) {
	prefix := make([]byte, codec.LengthPrefixSize)
	if _, err := io.ReadFull(r.reader, prefix); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: torn length prefix at offset %d", ErrCorruption, r.offset)
		}
		return nil, err
	}

	size, err := r.entrySize(prefix, r.offset)
	if err != nil {
		return nil, err
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r.reader, data); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: torn entry at offset %d", ErrCorruption, r.offset)
		}
		return nil, err
	}

	frame, err := DecodeStoredFrame(data)
	if err != nil {
		return nil, err
	}
	r.offset += int64(codec.LengthPrefixSize + size)
	return frame, nil
}

// ReadAt reads the frame whose entry starts at offset. It does not move the
// sequential read position.
func (r *LogReader) ReadAt(offset int64) (*Frame, error) {
	prefix := make([]byte, codec.LengthPrefixSize)
	if _, err := r.file.ReadAt(prefix, offset); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no entry at offset %d", ErrCorruption, offset)
		}
		return nil, err
	}

	size, err := r.entrySize(prefix, offset)
	if err != nil {
		return nil, err
	}

	data := make([]byte, size)
	if _, err := r.file.ReadAt(data, offset+codec.LengthPrefixSize); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: torn entry at offset %d", ErrCorruption, offset)
		}
		return nil, err
	}

	return DecodeStoredFrame(data)
}

// entrySize decodes the length prefix of the entry at offset. The size is
// checked against the bytes left in the file, not the configured payload
// limit, so entries written under a larger limit stay readable.
func (r *LogReader) entrySize(prefix []byte, offset int64) (int, error) {
	var size codec.Uint32
	if _, err := size.Deserialize(prefix); err != nil {
		return 0, err
	}
	info, err := r.file.Stat()
	if err != nil {
		return 0, err
	}
	remaining := info.Size() - offset - codec.LengthPrefixSize
	if int64(size.Get()) > remaining {
		return 0, fmt.Errorf("%w: entry of %d bytes at offset %d overruns file (%d bytes left)",
			ErrCorruption, size.Get(), offset, remaining)
	}
	return int(size.Get()), nil
}

// Seek sets the read offset
func (r *LogReader) Seek(offset int64) error {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	r.reader.Reset(r.file)
	r.offset = offset
	return nil
}

// Offset returns the current read offset
func (r *LogReader) Offset() int64 {
	return r.offset
}

// Iterator returns a streaming iterator over frames from the current offset
func (r *LogReader) Iterator() RecordIterator {
	return &logRecordIterator{reader: r}
}

// Close closes the log reader
func (r *LogReader) Close() error {
	return r.file.Close()
}

type logRecordIterator struct {
	reader *LogReader
	frame  *Frame
	offset int64
	err    error
}

func (it *logRecordIterator) Next() bool {
	it.offset = it.reader.Offset()
	it.frame, it.err = it.reader.ReadNext()
	return it.err == nil
}

func (it *logRecordIterator) Frame() *Frame {
	return it.frame
}

func (it *logRecordIterator) Offset() int64 {
	return it.offset
}

// Err returns the error that stopped iteration, or nil at a clean end of file
func (it *logRecordIterator) Err() error {
	if it.err == io.EOF {
		return nil
	}
	return it.err
}

func (it *logRecordIterator) Close() error {
	// The reader is owned by the caller
	return nil
}
