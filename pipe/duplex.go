package pipe

// Conn is one end of a duplex pipe.
type Conn[T any] struct {
	in  <-chan T
	out chan<- T
}

// NewDuplex returns the two ends of a bidirectional pipe. Whatever one end
// sends, the other receives. Each direction buffers up to buffer values.
func NewDuplex[T any](buffer int) (*Conn[T], *Conn[T]) {
	ab := make(chan T, buffer)
	ba := make(chan T, buffer)
	return &Conn[T]{in: ba, out: ab}, &Conn[T]{in: ab, out: ba}
}

// Send transmits v to the other end.
func (c *Conn[T]) Send(v T) {
	c.out <- v
}

// Recv waits for a value from the other end.
func (c *Conn[T]) Recv() T {
	return <-c.in
}

// Relay receives one item on c and sends item+1 back to the other end. It
// returns the item it received. Two ends both running Relay with nothing
// sent first wait on each other forever.
func Relay(c *Conn[int]) int {
	item := c.Recv()
	c.Send(item + 1)
	return item
}

// Symmetric returns the two sides of the symmetric deadlock: each side
// relays on its own end of one duplex, so each receives before it sends.
func Symmetric() (sideA, sideB func()) {
	a, b := NewDuplex[int](1)
	return func() { Relay(a) }, func() { Relay(b) }
}
