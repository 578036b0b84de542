package engine

// cursor walks an input buffer, keeping the virtual address of the next
// unread byte.
type cursor struct {
	code []byte
	off  int
	addr uint64
}

func newCursor(code []byte, addr uint64) *cursor {
	return &cursor{code: code, addr: addr}
}

func (c *cursor) remaining() int { return len(c.code) - c.off }

func (c *cursor) rest() []byte { return c.code[c.off:] }

// advance consumes n bytes and returns them. n must not exceed
// remaining().
func (c *cursor) advance(n int) []byte {
	b := c.code[c.off : c.off+n]
	c.off += n
	c.addr += uint64(n)
	return b
}
