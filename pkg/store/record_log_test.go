package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/crunchybytes/pkg/codec"
)

func openTestLog(t *testing.T, dir string, fsync time.Duration) *RecordLog {
	t.Helper()
	rl, err := NewRecordLog(RecordLogConfig{
		DataDir:        dir,
		FsyncInterval:  fsync,
		MaxPayloadSize: testMaxPayload,
		Logger:         zerolog.Nop(),
	})
	require.NoError(t, err)
	_, err = rl.Open()
	require.NoError(t, err)
	return rl
}

func TestRecordLog_BasicOperations(t *testing.T) {
	rl := openTestLog(t, t.TempDir(), 0)
	defer rl.Close()

	id, err := rl.Put("test::OneBool", []byte{1})
	require.NoError(t, err)
	assert.NotEqual(t, ksuid.Nil, id)

	rec, err := rl.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "test::OneBool", rec.Schema)
	assert.Equal(t, []byte{1}, rec.Payload)

	_, err = rl.Get(ksuid.New())
	assert.ErrorIs(t, err, ErrRecordNotFound)

	require.NoError(t, rl.Delete(id))
	_, err = rl.Get(id)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.ErrorIs(t, rl.Delete(id), ErrRecordNotFound)

	stats := rl.Stats()
	assert.Equal(t, "log", stats.Engine)
	assert.Equal(t, 0, stats.Records)
	assert.Equal(t, 1, stats.Tombstones)
	assert.Greater(t, stats.DataSize, int64(0))
}

func TestRecordLog_PutWithIDReplaces(t *testing.T) {
	rl := openTestLog(t, t.TempDir(), 0)
	defer rl.Close()

	id := ksuid.New()
	require.NoError(t, rl.PutWithID(id, "s", []byte("v1")))
	require.NoError(t, rl.PutWithID(id, "s", []byte("v2")))

	rec, err := rl.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), rec.Payload)
	assert.Equal(t, 1, rl.Stats().Records)

	assert.ErrorIs(t, rl.PutWithID(ksuid.Nil, "s", nil), ErrInvalidID)
}

func TestRecordLog_PayloadLimit(t *testing.T) {
	rl := openTestLog(t, t.TempDir(), 0)
	defer rl.Close()

	_, err := rl.Put("s", make([]byte, testMaxPayload+1))
	assert.ErrorIs(t, err, codec.ErrLengthExceeded)

	_, err = rl.Put("s", make([]byte, testMaxPayload))
	assert.NoError(t, err)
}

func TestRecordLog_List(t *testing.T) {
	rl := openTestLog(t, t.TempDir(), 0)
	defer rl.Close()

	var ids []ksuid.KSUID
	for i := 0; i < 3; i++ {
		id, err := ksuid.NewRandomWithTime(time.Unix(int64(1_700_000_000+i), 0))
		require.NoError(t, err)
		require.NoError(t, rl.PutWithID(id, fmt.Sprintf("s%d", i), []byte("x")))
		ids = append(ids, id)
	}
	require.NoError(t, rl.Delete(ids[1]))

	entries, err := rl.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ids[0], entries[0].ID)
	assert.Equal(t, "s0", entries[0].Schema)
	assert.Equal(t, ids[2], entries[1].ID)
	assert.Greater(t, entries[1].Size, 0)
}

func TestRecordLog_Persistence(t *testing.T) {
	dir := t.TempDir()

	rl := openTestLog(t, dir, 0)
	kept, err := rl.Put("s", []byte("kept"))
	require.NoError(t, err)
	gone, err := rl.Put("s", []byte("gone"))
	require.NoError(t, err)
	require.NoError(t, rl.Delete(gone))
	require.NoError(t, rl.Close())

	rl = openTestLog(t, dir, 0)
	defer rl.Close()

	rec, err := rl.Get(kept)
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), rec.Payload)

	_, err = rl.Get(gone)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.Equal(t, 1, rl.Stats().Tombstones)
}

func TestRecordLog_RecoveryTruncatesTail(t *testing.T) {
	dir := t.TempDir()

	rl := openTestLog(t, dir, 0)
	first, err := rl.Put("s", []byte("first"))
	require.NoError(t, err)
	intactSize := rl.Stats().DataSize
	_, err = rl.Put("s", []byte("second"))
	require.NoError(t, err)
	require.NoError(t, rl.Close())

	// Tear the second entry
	dataFile := filepath.Join(dir, DataFileName)
	info, err := os.Stat(dataFile)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(dataFile, info.Size()-3))

	rl, err = NewRecordLog(RecordLogConfig{DataDir: dir, MaxPayloadSize: testMaxPayload, Logger: zerolog.Nop()})
	require.NoError(t, err)
	recovery, err := rl.Open()
	require.NoError(t, err)
	defer rl.Close()

	assert.Equal(t, int64(1), recovery.RecordsValidated)
	assert.Equal(t, intactSize, recovery.FileSizeAfter)
	assert.Equal(t, info.Size()-3-intactSize, recovery.BytesTruncated)
	assert.True(t, recovery.IndexRebuilt)

	rec, err := rl.Get(first)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), rec.Payload)
	assert.Equal(t, 1, rl.Stats().Records)

	// The log keeps accepting writes after the damaged tail
	id, err := rl.Put("s", []byte("third"))
	require.NoError(t, err)
	rec, err = rl.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("third"), rec.Payload)
}

func TestRecordLog_RecoveryDamagedFirstEntry(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, DataFileName)
	require.NoError(t, os.WriteFile(dataFile, []byte{9, 0, 0, 0, 1, 2, 3}, 0600))

	rl := openTestLog(t, dir, 0)
	defer rl.Close()

	info, err := os.Stat(dataFile)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
	assert.Equal(t, 0, rl.Stats().Records)
}

func TestRecordLog_LoweredPayloadLimitKeepsRecords(t *testing.T) {
	dir := t.TempDir()

	rl := openTestLog(t, dir, 0)
	small, err := rl.Put("s", make([]byte, 10))
	require.NoError(t, err)
	large, err := rl.Put("s", make([]byte, 500))
	require.NoError(t, err)
	after, err := rl.Put("s", make([]byte, 10))
	require.NoError(t, err)
	sizeBefore := rl.Stats().DataSize
	require.NoError(t, rl.Close())

	rl, err = NewRecordLog(RecordLogConfig{DataDir: dir, MaxPayloadSize: 100, Logger: zerolog.Nop()})
	require.NoError(t, err)
	recovery, err := rl.Open()
	require.NoError(t, err)
	defer rl.Close()

	assert.Equal(t, int64(3), recovery.RecordsValidated)
	assert.Equal(t, int64(0), recovery.BytesTruncated)
	assert.Equal(t, sizeBefore, recovery.FileSizeAfter)

	for id, size := range map[ksuid.KSUID]int{small: 10, large: 500, after: 10} {
		rec, err := rl.Get(id)
		require.NoError(t, err)
		assert.Len(t, rec.Payload, size)
	}

	entries, err := rl.List()
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	// The lowered limit still applies to new writes
	_, err = rl.Put("s", make([]byte, 101))
	assert.ErrorIs(t, err, codec.ErrLengthExceeded)
}

func TestRecordLog_ImmediateReadWithFsyncInterval(t *testing.T) {
	rl := openTestLog(t, t.TempDir(), time.Hour)
	defer rl.Close()

	for i := 0; i < 20; i++ {
		value := []byte(fmt.Sprintf("value_%d", i))
		id, err := rl.Put("s", value)
		require.NoError(t, err)

		rec, err := rl.Get(id)
		require.NoError(t, err, "read after write %d", i)
		assert.Equal(t, value, rec.Payload)
	}
}

func TestRecordLog_ConcurrentReadWrite(t *testing.T) {
	rl := openTestLog(t, t.TempDir(), 10*time.Millisecond)
	defer rl.Close()

	const numGoroutines = 8
	const numOperations = 25

	var wg sync.WaitGroup
	errs := make(chan error, numGoroutines*numOperations)

	for g := 0; g < numGoroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				value := fmt.Sprintf("value_%d_%d", g, j)
				id, err := rl.Put("s", []byte(value))
				if err != nil {
					errs <- fmt.Errorf("write %d/%d: %w", g, j, err)
					continue
				}
				rec, err := rl.Get(id)
				if err != nil {
					errs <- fmt.Errorf("read %d/%d: %w", g, j, err)
					continue
				}
				if string(rec.Payload) != value {
					errs <- fmt.Errorf("mismatch %d/%d: got %q", g, j, rec.Payload)
				}
			}
		}(g)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, numGoroutines*numOperations, rl.Stats().Records)
}

func TestRecordLog_Closed(t *testing.T) {
	rl, err := NewRecordLog(RecordLogConfig{DataDir: t.TempDir(), Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = rl.Put("s", nil)
	assert.ErrorIs(t, err, ErrStoreClosed)
	_, err = rl.Get(ksuid.New())
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, rl.Delete(ksuid.New()), ErrStoreClosed)
	_, err = rl.List()
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.Equal(t, Stats{Engine: "log"}, rl.Stats())
	assert.NoError(t, rl.Close())
}
