package render

// cellColor flattens a cell into one color for pixel surfaces.
func cellColor(f *Frame, x, y int) Color {
	ch, st := f.At(x, y)
	switch {
	case st.HasBG:
		return st.BG
	case ch == ' ':
		return Black
	case st.HasFG:
		return st.FG
	default:
		return White
	}
}
