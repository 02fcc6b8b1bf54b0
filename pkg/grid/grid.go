package grid

// GetGridCoords converts a linear index into column and row for a grid that
// is cols wide.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}
