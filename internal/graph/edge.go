package graph

import (
	"encoding/binary"

	"github.com/lanrat/extsort"

	"github.com/wikihop/wikihop/internal/model"
)

// edge is the extsort.SortType element the builder externally sorts by
// (From,To), grounded on the qrank-builder Link type's ToBytes/FromBytes
// pairing.
type edge struct {
	From model.PageID
	To   model.PageID
}

func (e edge) ToBytes() []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[0:4], e.From)
	binary.BigEndian.PutUint32(buf[4:8], e.To)
	return buf
}

func edgeFromBytes(b []byte) extsort.SortType {
	return edge{
		From: binary.BigEndian.Uint32(b[0:4]),
		To:   binary.BigEndian.Uint32(b[4:8]),
	}
}

// edgeLess orders by From first so that the merge phase can group
// adjacency lists by source page, then by To so CSR neighbor lists come
// out in ascending order — the order the bidirectional search relies on
// for its deterministic tie-break.
func edgeLess(a, b extsort.SortType) bool {
	aa, bb := a.(edge), b.(edge)
	if aa.From != bb.From {
		return aa.From < bb.From
	}
	return aa.To < bb.To
}
