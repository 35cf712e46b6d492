package world

// Chunk geometry. Blocks are grouped into square columns of ChunkSize×ChunkSize.
const (
	// ChunkShift - shift by N bits for 2^N blocks per chunk side (2^4 = 16)
	ChunkShift = 4

	// ChunkSize in blocks
	ChunkSize = 1 << ChunkShift

	// Vertical build limits. Column scans never leave this range.
	MinHeight = -64
	MaxHeight = 320
)

// chunkKey identifies a chunk column inside one world.
type chunkKey struct {
	cx, cz int
}

// blockKey identifies a single block inside one world.
type blockKey struct {
	x, y, z int
}

// columnKey identifies a vertical block column.
type columnKey struct {
	x, z int
}

// BlockToChunk converts a block coordinate to its chunk coordinate.
// Arithmetic shift floors negatives: -1 >> 4 == -1.
func BlockToChunk(block int) int {
	return block >> ChunkShift
}

// ChunkOrigin returns the lowest block coordinate of chunk c.
func ChunkOrigin(c int) int {
	return c << ChunkShift
}

// clampHeight bounds y to the build limits.
func clampHeight(y int) int {
	return min(max(y, MinHeight), MaxHeight-1)
}
