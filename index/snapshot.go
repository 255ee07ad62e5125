package index

import (
	"fmt"
	"sort"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/recall/core"
)

// snapshotVersion is the current binary snapshot format version.
// Bump when the layout changes; Restore rejects unknown versions.
const snapshotVersion = 1

// Snapshot serializes the full index state to a versioned binary form.
// Dead arena slots are compacted away; posting entries reference positions
// in the serialized document table. Terms are written in lexicographic
// order so identical indexes produce identical snapshots.
func (ix *Index) Snapshot() []byte {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	// Compact live slots to sequential snapshot positions.
	remap := make(map[int32]int, ix.liveDocs)
	live := make([]*docInfo, 0, ix.liveDocs)
	for slot := range ix.docs {
		if ix.docs[slot].alive {
			remap[int32(slot)] = len(live)
			live = append(live, &ix.docs[slot])
		}
	}

	terms := make([]string, 0, len(ix.postings))
	for term := range ix.postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	size := 1 // version byte
	size += varint.PositiveInt.Size(len(live))
	for _, d := range live {
		size += docSize(d)
	}
	// Entries referencing dead slots are dropped, matching search behavior.
	liveEntries := func(pl *postingList) []postingEntry {
		out := make([]postingEntry, 0, len(pl.entries))
		for i := range pl.entries {
			if _, ok := remap[pl.entries[i].slot]; ok {
				out = append(out, pl.entries[i])
			}
		}
		return out
	}
	perTerm := make(map[string][]postingEntry, len(terms))

	size += varint.PositiveInt.Size(len(terms))
	for _, term := range terms {
		size += ord.String.Size(term)
		entries := liveEntries(ix.postings[term])
		perTerm[term] = entries
		size += varint.PositiveInt.Size(len(entries))
		for i := range entries {
			size += entrySize(&entries[i], remap)
		}
	}

	bs := make([]byte, size)
	n := 0
	bs[n] = snapshotVersion
	n++

	n += varint.PositiveInt.Marshal(len(live), bs[n:])
	for _, d := range live {
		n += marshalDoc(d, bs[n:])
	}

	n += varint.PositiveInt.Marshal(len(terms), bs[n:])
	for _, term := range terms {
		n += ord.String.Marshal(term, bs[n:])
		entries := perTerm[term]
		n += varint.PositiveInt.Marshal(len(entries), bs[n:])
		for i := range entries {
			n += marshalEntry(&entries[i], remap, bs[n:])
		}
	}

	return bs
}

// Restore replaces the index state with the contents of a snapshot.
func (ix *Index) Restore(bs []byte) error {
	if len(bs) == 0 {
		return fmt.Errorf("%w: empty data", ErrCorruptSnapshot)
	}
	if bs[0] != snapshotVersion {
		return fmt.Errorf("%w: version %d", ErrUnknownSnapshotVersion, bs[0])
	}
	n := 1

	docCount, m, err := varint.PositiveInt.Unmarshal(bs[n:])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	n += m

	docs := make([]docInfo, 0, docCount)
	slots := make(map[core.ID]int32, docCount)
	var totalLength float64
	for i := 0; i < docCount; i++ {
		d, m, err := unmarshalDoc(bs[n:])
		if err != nil {
			return fmt.Errorf("%w: document %d: %w", ErrCorruptSnapshot, i, err)
		}
		n += m
		slots[d.id] = int32(len(docs))
		docs = append(docs, d)
		totalLength += d.length
	}

	termCount, m, err := varint.PositiveInt.Unmarshal(bs[n:])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	n += m

	postings := make(map[string]*postingList, termCount)
	for i := 0; i < termCount; i++ {
		term, m, err := ord.String.Unmarshal(bs[n:])
		if err != nil {
			return fmt.Errorf("%w: term %d: %w", ErrCorruptSnapshot, i, err)
		}
		n += m

		entryCount, m, err := varint.PositiveInt.Unmarshal(bs[n:])
		if err != nil {
			return fmt.Errorf("%w: term %q: %w", ErrCorruptSnapshot, term, err)
		}
		n += m

		pl := &postingList{entries: make([]postingEntry, 0, entryCount)}
		for j := 0; j < entryCount; j++ {
			e, m, err := unmarshalEntry(bs[n:])
			if err != nil {
				return fmt.Errorf("%w: term %q entry %d: %w", ErrCorruptSnapshot, term, j, err)
			}
			n += m
			if int(e.slot) >= len(docs) {
				return fmt.Errorf("%w: term %q references document %d of %d",
					ErrCorruptSnapshot, term, e.slot, len(docs))
			}
			pl.entries = append(pl.entries, e)
		}
		postings[term] = pl
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.docs = docs
	ix.slots = slots
	ix.postings = postings
	ix.totalLength = totalLength
	ix.liveDocs = len(docs)
	return nil
}

func docSize(d *docInfo) int {
	size := varint.Uint64.Size(uint64(d.id))
	size += ord.String.Size(d.title)
	size += ord.String.Size(d.category)
	size += varint.PositiveInt.Size(len(d.tags))
	for _, tag := range d.tags {
		size += ord.String.Size(tag)
	}
	size += varint.Int64.Size(d.createdAt.UnixNano())
	size += raw.Float64.Size(d.length)
	return size
}

func marshalDoc(d *docInfo, bs []byte) int {
	n := varint.Uint64.Marshal(uint64(d.id), bs)
	n += ord.String.Marshal(d.title, bs[n:])
	n += ord.String.Marshal(d.category, bs[n:])
	n += varint.PositiveInt.Marshal(len(d.tags), bs[n:])
	for _, tag := range d.tags {
		n += ord.String.Marshal(tag, bs[n:])
	}
	n += varint.Int64.Marshal(d.createdAt.UnixNano(), bs[n:])
	n += raw.Float64.Marshal(d.length, bs[n:])
	return n
}

func unmarshalDoc(bs []byte) (docInfo, int, error) {
	var d docInfo
	id, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return d, n, err
	}
	d.id = core.ID(id)

	d.title, _, err = stringAt(bs, &n)
	if err != nil {
		return d, n, err
	}
	d.category, _, err = stringAt(bs, &n)
	if err != nil {
		return d, n, err
	}

	tagCount, m, err := varint.PositiveInt.Unmarshal(bs[n:])
	if err != nil {
		return d, n, err
	}
	n += m
	for i := 0; i < tagCount; i++ {
		tag, _, err := stringAt(bs, &n)
		if err != nil {
			return d, n, err
		}
		d.tags = append(d.tags, tag)
	}

	nanos, m, err := varint.Int64.Unmarshal(bs[n:])
	if err != nil {
		return d, n, err
	}
	n += m
	d.createdAt = time.Unix(0, nanos).UTC()

	d.length, m, err = raw.Float64.Unmarshal(bs[n:])
	if err != nil {
		return d, n, err
	}
	n += m

	d.alive = true
	return d, n, nil
}

func entrySize(e *postingEntry, remap map[int32]int) int {
	size := varint.PositiveInt.Size(remap[e.slot])
	size += raw.Float64.Size(e.tf)
	for _, hits := range e.fieldHits {
		size += varint.Uint64.Size(uint64(hits))
	}
	return size
}

func marshalEntry(e *postingEntry, remap map[int32]int, bs []byte) int {
	n := varint.PositiveInt.Marshal(remap[e.slot], bs)
	n += raw.Float64.Marshal(e.tf, bs[n:])
	for _, hits := range e.fieldHits {
		n += varint.Uint64.Marshal(uint64(hits), bs[n:])
	}
	return n
}

func unmarshalEntry(bs []byte) (postingEntry, int, error) {
	var e postingEntry
	slot, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return e, n, err
	}
	e.slot = int32(slot)

	tf, m, err := raw.Float64.Unmarshal(bs[n:])
	if err != nil {
		return e, n, err
	}
	n += m
	e.tf = tf

	for i := range e.fieldHits {
		hits, m, err := varint.Uint64.Unmarshal(bs[n:])
		if err != nil {
			return e, n, err
		}
		n += m
		e.fieldHits[i] = uint32(hits)
	}
	return e, n, nil
}

// stringAt unmarshals a string at *offset and advances it.
func stringAt(bs []byte, offset *int) (string, int, error) {
	s, n, err := ord.String.Unmarshal(bs[*offset:])
	*offset += n
	return s, n, err
}
