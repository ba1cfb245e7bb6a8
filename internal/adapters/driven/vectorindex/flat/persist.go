package flat

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
	"github.com/kestrel-labs/kestrel/internal/logger"
)

// blobMagic identifies the snapshot vector blob.
var blobMagic = [4]byte{'K', 'V', 'I', 'X'}

// blobVersion is the current snapshot format version.
const blobVersion = uint32(1)

// sidecarSegment is the JSON representation of a segment in the
// sidecar and in WAL records.
type sidecarSegment struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	DocumentID string         `json:"document_id"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
}

// walRecord is one appended insertion.
type walRecord struct {
	Segment sidecarSegment `json:"segment"`
	Vector  []float32      `json:"vector"`
}

func (idx *Index) sidecarPath() string {
	return idx.basePath + ".chunks.json"
}

func (idx *Index) walPath() string {
	return idx.basePath + ".wal"
}

func toSidecar(segment domain.Segment) sidecarSegment {
	return sidecarSegment{
		ID:         segment.ID,
		Content:    segment.Content,
		DocumentID: segment.DocumentID,
		Metadata:   segment.Metadata,
		CreatedAt:  segment.CreatedAt,
	}
}

func fromSidecar(s sidecarSegment) domain.Segment {
	return domain.Segment{
		ID:         s.ID,
		Content:    s.Content,
		DocumentID: s.DocumentID,
		Metadata:   s.Metadata,
		CreatedAt:  s.CreatedAt,
	}
}

// appendWAL writes one length-prefixed record and syncs it to disk.
// Caller must hold the write lock.
func (idx *Index) appendWAL(segment domain.Segment, vector []float32) error {
	payload, err := json.Marshal(walRecord{
		Segment: toSidecar(segment),
		Vector:  vector,
	})
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	var length [4]byte
	binary.LittleEndian.PutUint32(length[:], uint32(len(payload)))

	if _, err := idx.wal.Write(length[:]); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := idx.wal.Write(payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return idx.wal.Sync()
}

// replayWAL applies records written since the last snapshot. A
// truncated tail (crash mid-append) stops replay with a warning; the
// records before it are intact.
func (idx *Index) replayWAL() {
	f, err := os.Open(idx.walPath())
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to open WAL, skipping replay: %v", err)
		}
		return
	}
	defer f.Close()

	replayed := 0
	for {
		var length [4]byte
		if _, err := io.ReadFull(f, length[:]); err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn("Truncated WAL record, stopping replay after %d records", replayed)
			}
			break
		}

		payload := make([]byte, binary.LittleEndian.Uint32(length[:]))
		if _, err := io.ReadFull(f, payload); err != nil {
			logger.Warn("Truncated WAL record, stopping replay after %d records", replayed)
			break
		}

		var record walRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			logger.Warn("Corrupt WAL record, stopping replay after %d records: %v", replayed, err)
			break
		}
		if len(record.Vector) != idx.dimension {
			logger.Warn("WAL record %q has dimension %d, want %d; skipped", record.Segment.ID, len(record.Vector), idx.dimension)
			continue
		}

		idx.insert(fromSidecar(record.Segment), record.Vector)
		replayed++
	}

	if replayed > 0 {
		logger.Info("Replayed %d WAL records", replayed)
	}
	idx.walCount = replayed
}

// snapshot writes the vector blob and sidecar atomically (write to a
// temp file, then rename) and truncates the WAL. Caller must hold the
// write lock.
func (idx *Index) snapshot() error {
	if err := idx.writeBlob(); err != nil {
		return err
	}
	if err := idx.writeSidecar(); err != nil {
		return err
	}

	if idx.wal != nil {
		if err := idx.wal.Truncate(0); err != nil {
			return fmt.Errorf("truncate WAL: %w", err)
		}
	} else if err := os.Remove(idx.walPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove WAL: %w", err)
	}
	idx.walCount = 0

	logger.Debug("Index snapshot written: %d segments at %s", len(idx.segments), idx.basePath)
	return nil
}

// writeBlob serialises vectors as little-endian float32 rows behind a
// magic/version/dimension/count header.
func (idx *Index) writeBlob() error {
	tmp := idx.basePath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create blob: %w", err)
	}

	header := make([]byte, 16)
	copy(header[0:4], blobMagic[:])
	binary.LittleEndian.PutUint32(header[4:8], blobVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(idx.dimension))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(idx.vectors)))

	if _, err := f.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]byte, 4*idx.dimension)
	for _, vector := range idx.vectors {
		for i, v := range vector {
			binary.LittleEndian.PutUint32(row[4*i:], math.Float32bits(v))
		}
		if _, err := f.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write vector: %w", err)
		}
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync blob: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close blob: %w", err)
	}
	return os.Rename(tmp, idx.basePath)
}

// writeSidecar serialises segment records in arena order.
func (idx *Index) writeSidecar() error {
	records := make([]sidecarSegment, len(idx.segments))
	for i := range idx.segments {
		records[i] = toSidecar(idx.segments[i])
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}

	tmp := idx.sidecarPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return os.Rename(tmp, idx.sidecarPath())
}

// loadSnapshot restores the arena from the blob and sidecar. Both
// artifacts must exist and agree; anything else is logged and the
// index starts empty.
func (idx *Index) loadSnapshot() {
	vectors, ok := idx.readBlob()
	if !ok {
		return
	}

	data, err := os.ReadFile(idx.sidecarPath())
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read segment sidecar, starting empty: %v", err)
		} else {
			logger.Warn("Vector blob present but sidecar missing, starting empty")
		}
		return
	}

	var records []sidecarSegment
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Warn("Corrupt segment sidecar, starting empty: %v", err)
		return
	}

	if len(records) != len(vectors) {
		logger.Warn("Index disagreement: %d vectors but %d sidecar segments, starting empty", len(vectors), len(records))
		return
	}

	for i := range records {
		idx.insert(fromSidecar(records[i]), vectors[i])
	}
	logger.Info("Loaded index snapshot: %d segments from %s", len(records), idx.basePath)
}

// readBlob reads the vector rows, returning ok=false when the blob is
// absent or unusable.
func (idx *Index) readBlob() ([][]float32, bool) {
	f, err := os.Open(idx.basePath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to open vector blob, starting empty: %v", err)
		}
		return nil, false
	}
	defer f.Close()

	header := make([]byte, 16)
	if _, err := io.ReadFull(f, header); err != nil {
		logger.Warn("Truncated vector blob header, starting empty")
		return nil, false
	}
	if [4]byte(header[0:4]) != blobMagic {
		logger.Warn("Unrecognised vector blob format, starting empty")
		return nil, false
	}
	if v := binary.LittleEndian.Uint32(header[4:8]); v != blobVersion {
		logger.Warn("Unsupported vector blob version %d, starting empty", v)
		return nil, false
	}
	if d := int(binary.LittleEndian.Uint32(header[8:12])); d != idx.dimension {
		logger.Warn("Vector blob dimension %d does not match configured %d, starting empty", d, idx.dimension)
		return nil, false
	}

	count := int(binary.LittleEndian.Uint32(header[12:16]))
	vectors := make([][]float32, 0, count)
	row := make([]byte, 4*idx.dimension)
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(f, row); err != nil {
			logger.Warn("Truncated vector blob after %d of %d rows, starting empty", i, count)
			return nil, false
		}
		vector := make([]float32, idx.dimension)
		for j := range vector {
			vector[j] = math.Float32frombits(binary.LittleEndian.Uint32(row[4*j:]))
		}
		vectors = append(vectors, vector)
	}

	return vectors, true
}
