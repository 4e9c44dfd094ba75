package storage

import (
	"errors"

	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/crunchybytes/pkg/store"
)

var _ store.RecordStore = (*PebbleStore)(nil)

// PebbleConfig holds configuration for the pebble engine
type PebbleConfig struct {
	Path           string
	MaxPayloadSize int
	Sync           bool // fsync every write
	Logger         zerolog.Logger
}

// PebbleStore keeps record frames in pebble keyed by the id bytes. Keys sort
// like ksuids, so iteration follows creation order.
type PebbleStore struct {
	db         *pebble.DB
	maxPayload int
	writeOpts  *pebble.WriteOptions
	logger     zerolog.Logger
}

// NewPebbleStore opens or creates a pebble database at config.Path
func NewPebbleStore(config PebbleConfig) (*PebbleStore, error) {
	db, err := pebble.Open(config.Path, &pebble.Options{})
	if err != nil {
		return nil, err
	}

	maxPayload := config.MaxPayloadSize
	if maxPayload <= 0 {
		maxPayload = store.DefaultMaxPayloadSize
	}
	writeOpts := pebble.NoSync
	if config.Sync {
		writeOpts = pebble.Sync
	}

	s := &PebbleStore{
		db:         db,
		maxPayload: maxPayload,
		writeOpts:  writeOpts,
		logger:     config.Logger.With().Str("component", "pebble").Logger(),
	}
	s.logger.Info().Str("path", config.Path).Msg("pebble store opened")
	return s, nil
}

// Put stores payload under a new id
func (s *PebbleStore) Put(schema string, payload []byte) (ksuid.KSUID, error) {
	id := ksuid.New()
	if err := s.PutWithID(id, schema, payload); err != nil {
		return ksuid.Nil, err
	}
	return id, nil
}

// PutWithID stores payload under id, replacing any previous record
func (s *PebbleStore) PutWithID(id ksuid.KSUID, schema string, payload []byte) error {
	if id == ksuid.Nil {
		return store.ErrInvalidID
	}

	frame, err := store.NewRecordFrame(id, schema, payload, s.maxPayload)
	if err != nil {
		return err
	}
	data, err := frame.Encode()
	if err != nil {
		return err
	}

	if err := s.db.Set(id.Bytes(), data, s.writeOpts); err != nil {
		return err
	}
	s.logger.Debug().Str("id", id.String()).Str("schema", schema).Int("size", len(data)).Msg("record stored")
	return nil
}

// Get returns the record stored under id
func (s *PebbleStore) Get(id ksuid.KSUID) (*store.Record, error) {
	frame, err := s.read(id)
	if err != nil {
		return nil, err
	}
	return frame.Record(), nil
}

func (s *PebbleStore) read(id ksuid.KSUID) (*store.Frame, error) {
	data, closer, err := s.db.Get(id.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, store.ErrRecordNotFound
		}
		return nil, err
	}
	defer closer.Close()

	// DecodeFrame copies out of data, which is only valid until closer.Close
	return store.DecodeStoredFrame(data)
}

// Delete removes the record stored under id
func (s *PebbleStore) Delete(id ksuid.KSUID) error {
	if _, err := s.read(id); err != nil {
		return err
	}
	if err := s.db.Delete(id.Bytes(), s.writeOpts); err != nil {
		return err
	}
	s.logger.Debug().Str("id", id.String()).Msg("record deleted")
	return nil
}

// List returns every record in id order
func (s *PebbleStore) List() ([]store.Entry, error) {
	iter, err := s.db.NewIter(nil)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var entries []store.Entry
	for iter.First(); iter.Valid(); iter.Next() {
		frame, err := store.DecodeStoredFrame(iter.Value())
		if err != nil {
			return nil, err
		}
		entries = append(entries, store.Entry{
			ID:        frame.Key(),
			Schema:    frame.Schema.String(),
			Size:      len(iter.Value()),
			Timestamp: frame.Time(),
		})
	}
	return entries, iter.Error()
}

// Stats returns store statistics. Pebble compacts deletions itself, so no
// tombstones are reported.
func (s *PebbleStore) Stats() store.Stats {
	stats := store.Stats{Engine: "pebble"}

	iter, err := s.db.NewIter(nil)
	if err != nil {
		return stats
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		stats.Records++
	}

	stats.DataSize = int64(s.db.Metrics().DiskSpaceUsage())
	return stats
}

// Close flushes and closes the database
func (s *PebbleStore) Close() error {
	return s.db.Close()
}
