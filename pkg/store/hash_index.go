package store

import (
	"sync"

	"github.com/segmentio/ksuid"
)

// HashIndex maps record ids to the location of their latest live frame
type HashIndex struct {
	entries    map[ksuid.KSUID]*IndexEntry
	tombstones int
	mutex      sync.RWMutex
}

// NewHashIndex creates a new hash index
func NewHashIndex() *HashIndex {
	return &HashIndex{
		entries: make(map[ksuid.KSUID]*IndexEntry),
	}
}

// Put adds or updates the entry for id
func (idx *HashIndex) Put(id ksuid.KSUID, entry *IndexEntry) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	idx.entries[id] = entry
}

// Get retrieves the entry for id
func (idx *HashIndex) Get(id ksuid.KSUID) (*IndexEntry, bool) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	entry, exists := idx.entries[id]
	return entry, exists
}

// Delete removes id and counts the tombstone that deleted it
func (idx *HashIndex) Delete(id ksuid.KSUID) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	delete(idx.entries, id)
	idx.tombstones++
}

// Size returns the number of live records
func (idx *HashIndex) Size() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	return len(idx.entries)
}

// Tombstones returns the number of tombstones seen
func (idx *HashIndex) Tombstones() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	return idx.tombstones
}

// Clear removes all entries from the index
func (idx *HashIndex) Clear() {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	idx.entries = make(map[ksuid.KSUID]*IndexEntry)
	idx.tombstones = 0
}

// IDs returns every live id in creation order
func (idx *HashIndex) IDs() []ksuid.KSUID {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	ids := make([]ksuid.KSUID, 0, len(idx.entries))
	for id := range idx.entries {
		ids = append(ids, id)
	}
	ksuid.Sort(ids)
	return ids
}

// BuildFromLog scans a log file from the start and populates the index
func (idx *HashIndex) BuildFromLog(reader *LogReader) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.entries = make(map[ksuid.KSUID]*IndexEntry)
	idx.tombstones = 0

	if err := reader.Seek(0); err != nil {
		return err
	}

	iterator := reader.Iterator()
	defer iterator.Close()

	for iterator.Next() {
		frame := iterator.Frame()
		id := frame.Key()
		if frame.Tombstone() {
			delete(idx.entries, id)
			idx.tombstones++
			continue
		}
		idx.entries[id] = &IndexEntry{
			Offset:    iterator.Offset(),
			Size:      uint32(reader.Offset() - iterator.Offset()),
			Timestamp: frame.Timestamp.Get(),
			Schema:    frame.Schema.String(),
		}
	}

	return iterator.Err()
}
