package syntax

// eof is returned by the reader when the source is exhausted.
const eof = 0

// Reader supplies the characters of a source with their positions.
// Positions can be marked and rolled back to.
type Reader struct {
	src   string
	pos   Pos
	marks []Pos
}

// NewReader returns a reader positioned at the first character of src.
func NewReader(src string) *Reader {
	return &Reader{
		src: src,
		pos: Pos{Line: 1, Col: 1},
	}
}

// Peek returns the current character without advancing, or 0 at the end.
func (r *Reader) Peek() byte {
	if r.pos.Offset < len(r.src) {
		return r.src[r.pos.Offset]
	}
	return eof
}

// Accept returns the current character and advances, or 0 at the end.
func (r *Reader) Accept() byte {
	if r.AtEnd() {
		return eof
	}
	c := r.src[r.pos.Offset]
	r.pos.Offset++
	r.pos.Col++
	if c == '\n' {
		r.pos.Line++
		r.pos.Col = 1
	}
	return c
}

// AtEnd reports whether all characters were accepted.
func (r *Reader) AtEnd() bool {
	return r.pos.Offset >= len(r.src)
}

// Pos returns the current position.
func (r *Reader) Pos() Pos {
	return r.pos
}

// Mark pushes the current position.
func (r *Reader) Mark() {
	r.marks = append(r.marks, r.pos)
}

// Rollback returns to the last marked position and removes the mark.
// It returns false if nothing is marked.
func (r *Reader) Rollback() bool {
	if len(r.marks) == 0 {
		return false
	}
	r.pos = r.marks[len(r.marks)-1]
	r.marks = r.marks[:len(r.marks)-1]
	return true
}

// Unmark drops the last mark without moving.
func (r *Reader) Unmark() {
	if len(r.marks) > 0 {
		r.marks = r.marks[:len(r.marks)-1]
	}
}
