package world

import (
	"sync"
)

// World is one named dimension: block terrain plus the set of loaded chunks.
// Safe for concurrent use.
type World struct {
	name string

	mu      sync.RWMutex
	loaded  map[chunkKey]struct{}
	solid   map[blockKey]struct{}
	columns map[columnKey]int // topmost solid y per column
}

// NewWorld creates an empty world with no loaded chunks.
func NewWorld(name string) *World {
	return &World{
		name:    name,
		loaded:  make(map[chunkKey]struct{}),
		solid:   make(map[blockKey]struct{}),
		columns: make(map[columnKey]int),
	}
}

// Name returns the world name.
func (w *World) Name() string {
	return w.name
}

// LoadChunk marks chunk (cx, cz) as loaded.
func (w *World) LoadChunk(cx, cz int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loaded[chunkKey{cx, cz}] = struct{}{}
}

// UnloadChunk marks chunk (cx, cz) as unloaded.
func (w *World) UnloadChunk(cx, cz int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.loaded, chunkKey{cx, cz})
}

// LoadArea loads every chunk overlapping the block rectangle [minX,maxX]×[minZ,maxZ].
func (w *World) LoadArea(minX, minZ, maxX, maxZ int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for cx := BlockToChunk(min(minX, maxX)); cx <= BlockToChunk(max(minX, maxX)); cx++ {
		for cz := BlockToChunk(min(minZ, maxZ)); cz <= BlockToChunk(max(minZ, maxZ)); cz++ {
			w.loaded[chunkKey{cx, cz}] = struct{}{}
		}
	}
}

// ChunkLoaded reports whether the chunk containing block (x, z) is loaded.
func (w *World) ChunkLoaded(x, z int) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.loaded[chunkKey{BlockToChunk(x), BlockToChunk(z)}]
	return ok
}

// LoadedChunkCount returns the number of loaded chunks.
func (w *World) LoadedChunkCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.loaded)
}

// SetBlock makes block (x, y, z) solid or air.
func (w *World) SetBlock(x, y, z int, solid bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	k := blockKey{x, y, z}
	col := columnKey{x, z}
	if solid {
		w.solid[k] = struct{}{}
		if top, ok := w.columns[col]; !ok || y > top {
			w.columns[col] = y
		}
		return
	}

	if _, ok := w.solid[k]; !ok {
		return
	}
	delete(w.solid, k)
	if top := w.columns[col]; top == y {
		w.recomputeColumn(col, y-1)
	}
}

// recomputeColumn finds the new top of col scanning down from y. Caller holds mu.
func (w *World) recomputeColumn(col columnKey, from int) {
	for y := clampHeight(from); y >= MinHeight; y-- {
		if _, ok := w.solid[blockKey{col.x, y, col.z}]; ok {
			w.columns[col] = y
			return
		}
	}
	delete(w.columns, col)
}

// Fill sets every block of the box spanned by two corners.
func (w *World) Fill(x1, y1, z1, x2, y2, z2 int, solid bool) {
	for x := min(x1, x2); x <= max(x1, x2); x++ {
		for y := min(y1, y2); y <= max(y1, y2); y++ {
			for z := min(z1, z2); z <= max(z1, z2); z++ {
				w.SetBlock(x, y, z, solid)
			}
		}
	}
}

// Solid reports whether block (x, y, z) is solid.
func (w *World) Solid(x, y, z int) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.solid[blockKey{x, y, z}]
	return ok
}

// HighestSolidBelow returns the topmost solid block y of column (x, z)
// at or below fromY. Returns false for an empty column.
func (w *World) HighestSolidBelow(x, z, fromY int) (int, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	top, ok := w.columns[columnKey{x, z}]
	if !ok {
		return 0, false
	}
	if top <= fromY {
		return top, true
	}
	for y := min(top, clampHeight(fromY)); y >= MinHeight; y-- {
		if _, ok := w.solid[blockKey{x, y, z}]; ok {
			return y, true
		}
	}
	return 0, false
}
