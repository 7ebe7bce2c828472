// Package pipe moves values between workers that share no memory.
//
// Pipe is one-directional and buffered. A reserved sentinel value marks the
// end of the stream, so the receiving loop is:
//
//	for {
//	    v, ok := p.Recv()
//	    if !ok { return }   // sentinel
//	    process(v)
//	}
//
// Duplex gives each side an end that can both send and receive. Two relays
// that each receive before sending, with nothing sent first, wait on each
// other forever.
package pipe

// Pipe is a buffered one-way channel with an end-of-stream sentinel.
type Pipe[T comparable] struct {
	ch       chan T
	sentinel T
}

// New returns a pipe that buffers up to buffer values. Receiving sentinel
// ends the stream.
func New[T comparable](sentinel T, buffer int) *Pipe[T] {
	return &Pipe[T]{
		ch:       make(chan T, buffer),
		sentinel: sentinel,
	}
}

// Send transmits v. It blocks only while the buffer is full. Sending the
// sentinel value is the same as calling Done.
func (p *Pipe[T]) Send(v T) {
	p.ch <- v
}

// Done sends the sentinel.
func (p *Pipe[T]) Done() {
	p.ch <- p.sentinel
}

// Recv waits for the next value. It returns false once the sentinel
// arrives.
func (p *Pipe[T]) Recv() (T, bool) {
	v := <-p.ch
	if v == p.sentinel {
		return v, false
	}
	return v, true
}

// Consume calls fn for every value until the sentinel and returns how many
// values it processed.
func (p *Pipe[T]) Consume(fn func(T)) int {
	n := 0
	for {
		v, ok := p.Recv()
		if !ok {
			return n
		}
		fn(v)
		n++
	}
}

// Produce sends each value in order, then the sentinel.
func (p *Pipe[T]) Produce(values ...T) {
	for _, v := range values {
		p.Send(v)
	}
	p.Done()
}
