package mmkv

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ValentinKolb/mmkv/lib/db/engines/mmkv/internal"
)

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

const (
	magicNum    = "MMKVDB\x00\x00" // File format identifier
	mmkvVersion = 1                // Snapshot format version
	bufferSize  = 1024 * 1024      // 1 MB read/write buffer
)

// ErrInvalidSnapshot is returned by Load for data that is not an mmkv snapshot.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Save persists the database to the writer.
//
// Shards are copied one at a time under their lock, so Save runs concurrently
// with other operations. The result is a fuzzy snapshot: it is consistent per
// shard but not a consistent cut across shards. Logically deleted entries are
// skipped.
//
// Thread-safety: This function allows concurrent operations with all other functions
// except Load.
func (m *mmkvImpl) Save(w io.Writer) error {
	writeIndex := m.currIndex.Load()

	var entries []internal.Entry
	m.eachShard(func(_ int, s *internal.Shard) {
		s.Data.Range(func(e *internal.Entry) bool {
			if _, isDeleted := e.TTLInfo(writeIndex); isDeleted {
				return true
			}
			c := *e
			c.Value = make([]byte, len(e.Value))
			copy(c.Value, e.Value)
			entries = append(entries, c)
			return true
		})
	})

	bw := bufio.NewWriterSize(w, bufferSize)

	// header: magic, version, write index, entry count
	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint8(mmkvVersion)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, writeIndex); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(entries))); err != nil {
		return err
	}

	for i := range entries {
		if err := writeEntry(bw, &entries[i]); err != nil {
			return fmt.Errorf("write entry %d: %w", i, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return err
	}

	m.metrics.snapshots.Inc()
	log.Infof("saved snapshot with %d entries at write index %d", len(entries), writeIndex)
	return nil
}

// writeEntry encodes key length, key, expireAt, deleteAt, index, value length, value
func writeEntry(w *bufio.Writer, e *internal.Entry) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(e.Key))); err != nil {
		return err
	}
	if _, err := w.WriteString(e.Key); err != nil {
		return err
	}
	for _, v := range []uint64{e.ExpireAt, e.DeleteAt, e.Index} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(e.Value))); err != nil {
		return err
	}
	_, err := w.Write(e.Value)
	return err
}

// Load replaces the database state with a snapshot written by Save. On error
// the database is left empty.
//
// Thread-safety: This function is not thread-safe and should not be called concurrently
func (m *mmkvImpl) Load(r io.Reader) error {

	// stop gc during load, it is restarted on the new shards
	m.stopGC()
	defer m.startGC()

	m.shards = m.newShards()
	m.currIndex.Store(0)

	br := bufio.NewReaderSize(r, bufferSize)

	magic := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magic); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if string(magic) != magicNum {
		return fmt.Errorf("%w: magic number mismatch", ErrInvalidSnapshot)
	}

	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if version != mmkvVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrInvalidSnapshot, version, mmkvVersion)
	}

	// the saved clock can be ahead of every entry index (Expire, SetWriteIdx)
	var savedIndex uint64
	if err := binary.Read(br, binary.LittleEndian, &savedIndex); err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	var count uint64
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	maxIndex := savedIndex
	for i := uint64(0); i < count; i++ {
		e, err := readEntry(br)
		if err != nil {
			m.shards = m.newShards()
			return fmt.Errorf("read entry %d of %d: %w", i, count, err)
		}
		maxIndex = max(maxIndex, e.Index)

		// single threaded, the gc is stopped
		shard := m.shardFor(e.Key)
		shard.Store(shard.Data.Find(e.Key), e)
	}

	m.SetWriteIdx(maxIndex)
	m.metrics.restores.Inc()
	log.Infof("loaded snapshot with %d entries, write index %d", count, maxIndex)
	return nil
}

func readEntry(r *bufio.Reader) (internal.Entry, error) {
	var e internal.Entry

	var keyLen uint32
	if err := binary.Read(r, binary.LittleEndian, &keyLen); err != nil {
		return e, err
	}
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return e, err
	}
	e.Key = string(key)

	for _, v := range []*uint64{&e.ExpireAt, &e.DeleteAt, &e.Index} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return e, err
		}
	}

	var valueLen uint32
	if err := binary.Read(r, binary.LittleEndian, &valueLen); err != nil {
		return e, err
	}
	e.Value = make([]byte, valueLen)
	if _, err := io.ReadFull(r, e.Value); err != nil {
		return e, err
	}
	return e, nil
}
