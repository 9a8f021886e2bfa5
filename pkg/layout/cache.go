package layout

import (
	"github.com/VictoriaMetrics/fastcache"

	"github.com/iotaledger/hive.go/ierrors"

	"github.com/ferat8/sui/pkg/move"
)

// layoutMemo keeps encoded layouts keyed by canonical type tag.
type layoutMemo struct {
	entries *fastcache.Cache
}

func newLayoutMemo(maxBytes int) *layoutMemo {
	return &layoutMemo{
		entries: fastcache.New(maxBytes),
	}
}

// getOrCompute returns the memoized layout for key, or computes, encodes and stores it.
func (m *layoutMemo) getOrCompute(key []byte, compute func() (*move.StructLayout, error)) (layout *move.StructLayout, memoized bool, err error) {
	if layoutBytes, exists := m.entries.HasGet(nil, key); exists {
		if layout, _, err = move.StructLayoutFromBytes(layoutBytes); err == nil {
			return layout, true, nil
		}
		// unreadable entries are recomputed
	}

	if layout, err = compute(); err != nil {
		return nil, false, err
	}

	layoutBytes, err := layout.Bytes()
	if err != nil {
		return nil, false, ierrors.Wrapf(err, "failed to encode layout of %s", layout.Type)
	}
	m.entries.Set(key, layoutBytes)

	return layout, false, nil
}
