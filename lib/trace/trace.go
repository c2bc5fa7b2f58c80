// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"encoding/hex"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/agentplatform/lib/codec"
	"github.com/bureau-foundation/agentplatform/lib/engine"
)

// Record is one dispatched task.
type Record struct {
	// Sequence is the record's position in dispatch order, from 1.
	Sequence uint64 `cbor:"seq"`

	// TaskID is the engine's registration ID for the task.
	TaskID uint64 `cbor:"id"`

	Name string `cbor:"name,omitempty"`

	// TriggerNanos is the time the task was scheduled for.
	TriggerNanos int64 `cbor:"trigger"`

	// ClockNanos is the engine's time when the task was handed to its
	// Run function.
	ClockNanos int64 `cbor:"clock"`
}

func (r Record) String() string {
	return fmt.Sprintf("#%d task %d %q trigger=%dns clock=%dns",
		r.Sequence, r.TaskID, r.Name, r.TriggerNanos, r.ClockNanos)
}

// Header describes the run a trace came from. It is not part of the
// digest: two runs recorded at different times still compare equal.
type Header struct {
	Engine      string    `cbor:"engine"`
	StartMillis int64     `cbor:"start_ms"`
	RecordedAt  time.Time `cbor:"recorded_at"`
}

// Trace is a header and its records.
type Trace struct {
	Header  Header   `cbor:"header"`
	Records []Record `cbor:"records"`
}

// Digest returns the hex BLAKE3 digest of the trace's records.
func (t *Trace) Digest() string { return Digest(t.Records) }

// Recorder collects dispatches. It is safe for concurrent use; a
// real-time engine records from its dispatcher goroutine while other
// goroutines read.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

var _ engine.Recorder = (*Recorder)(nil)

// RecordDispatch appends one dispatch.
func (r *Recorder) RecordDispatch(dispatch engine.Dispatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, Record{
		Sequence:     uint64(len(r.records) + 1),
		TaskID:       uint64(dispatch.ID),
		Name:         dispatch.Name,
		TriggerNanos: dispatch.TriggerNanos,
		ClockNanos:   dispatch.ClockNanos,
	})
}

// Records returns a copy of the records so far.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.records)
}

// Len returns the number of records so far.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Trace snapshots the records under header.
func (r *Recorder) Trace(header Header) *Trace {
	return &Trace{Header: header, Records: r.Records()}
}

// digestContext separates trace digests from any other BLAKE3 use.
const digestContext = "agentplatform 2026 dispatch trace v1"

// Digest hashes records in order. Each record is encoded as
// deterministic CBOR into a BLAKE3 hasher derived from a fixed
// context string.
func Digest(records []Record) string {
	hasher := blake3.NewDeriveKey(digestContext)
	encoder := codec.NewEncoder(hasher)
	for _, record := range records {
		// Writes to a hash.Hash never fail and Record has no
		// unencodable fields.
		if err := encoder.Encode(record); err != nil {
			panic("trace: encoding record for digest: " + err.Error())
		}
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// Divergence is the first position where two record lists differ.
// Left or Right is nil when that list ended first.
type Divergence struct {
	Index int
	Left  *Record
	Right *Record
}

func (d *Divergence) String() string {
	side := func(record *Record) string {
		if record == nil {
			return "(end of trace)"
		}
		return record.String()
	}
	return fmt.Sprintf("record %d: %s != %s", d.Index, side(d.Left), side(d.Right))
}

// Compare returns the first divergence between left and right, or nil
// when they are identical.
func Compare(left, right []Record) *Divergence {
	shared := min(len(left), len(right))
	for index := 0; index < shared; index++ {
		if left[index] != right[index] {
			return &Divergence{Index: index, Left: &left[index], Right: &right[index]}
		}
	}
	switch {
	case len(left) > shared:
		return &Divergence{Index: shared, Left: &left[shared]}
	case len(right) > shared:
		return &Divergence{Index: shared, Right: &right[shared]}
	}
	return nil
}
