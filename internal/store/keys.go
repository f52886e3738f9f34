package store

import (
	"encoding/binary"

	"github.com/wikihop/wikihop/internal/model"
)

// Key prefixes for the four logical keyspaces spec.md §6 defines, plus a
// fifth ('R') this implementation adds to let query-time redirect
// resolution work without re-walking chains (see DESIGN.md).
// A sixth prefix ('H') holds the incoming-edge mirror of the forward
// graph, needed to run true bidirectional BFS (spec.md §4.5's optional
// optimization) without re-scanning the whole graph for predecessors.
const (
	prefixForward     = 'I' // (namespace,title) -> page_id
	prefixReverse     = 'N' // page_id -> (namespace,title)
	prefixGraph       = 'G' // page_id -> concatenated neighbor ids (outgoing)
	prefixReverseGraph = 'H' // page_id -> concatenated neighbor ids (incoming)
	prefixRedirect    = 'R' // page_id -> terminal page_id
	prefixMeta        = 'M' // named scalar metadata
)

// forwardKey encodes encode(namespace,title) from spec.md §4.2: a
// fixed-width signed namespace prefix followed by the raw title bytes, so
// that per-namespace prefix scans are possible.
func forwardKey(ns model.Namespace, title []byte) []byte {
	key := make([]byte, 1+4+len(title))
	key[0] = prefixForward
	binary.BigEndian.PutUint32(key[1:5], uint32(ns))
	copy(key[5:], title)
	return key
}

func reverseKey(id model.PageID) []byte {
	key := make([]byte, 1+4)
	key[0] = prefixReverse
	binary.BigEndian.PutUint32(key[1:5], id)
	return key
}

func graphKey(id model.PageID) []byte {
	key := make([]byte, 1+4)
	key[0] = prefixGraph
	binary.BigEndian.PutUint32(key[1:5], id)
	return key
}

func reverseGraphKey(id model.PageID) []byte {
	key := make([]byte, 1+4)
	key[0] = prefixReverseGraph
	binary.BigEndian.PutUint32(key[1:5], id)
	return key
}

func redirectKey(id model.PageID) []byte {
	key := make([]byte, 1+4)
	key[0] = prefixRedirect
	binary.BigEndian.PutUint32(key[1:5], id)
	return key
}

func metaKey(name string) []byte {
	key := make([]byte, 1+len(name))
	key[0] = prefixMeta
	copy(key[1:], name)
	return key
}

// encodeReverseValue packs (namespace,title) as stored under a reverse key.
func encodeReverseValue(ns model.Namespace, title []byte) []byte {
	v := make([]byte, 4+len(title))
	binary.BigEndian.PutUint32(v[:4], uint32(ns))
	copy(v[4:], title)
	return v
}

func decodeReverseValue(v []byte) (model.Namespace, []byte) {
	ns := model.Namespace(binary.BigEndian.Uint32(v[:4]))
	title := make([]byte, len(v)-4)
	copy(title, v[4:])
	return ns, title
}

func encodePageID(id model.PageID) []byte {
	v := make([]byte, 4)
	binary.BigEndian.PutUint32(v, id)
	return v
}

func decodePageID(v []byte) model.PageID {
	return binary.BigEndian.Uint32(v)
}

// encodeAdjacency concatenates sorted, deduplicated neighbor ids into the
// blob stored under a 'G' key, per spec.md §4.4's CSR invariant.
func encodeAdjacency(neighbors []model.PageID) []byte {
	buf := make([]byte, 4*len(neighbors))
	for i, n := range neighbors {
		binary.BigEndian.PutUint32(buf[i*4:i*4+4], n)
	}
	return buf
}

func decodeAdjacency(buf []byte) []model.PageID {
	if len(buf) == 0 {
		return nil
	}
	out := make([]model.PageID, len(buf)/4)
	for i := range out {
		out[i] = binary.BigEndian.Uint32(buf[i*4 : i*4+4])
	}
	return out
}

const (
	metaBuildComplete = "build_complete"
	metaMaxPageID     = "max_page_id"
	metaDumpDate      = "dump_date"
	metaLangCode      = "lang_code"
)
