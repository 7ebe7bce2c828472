// Package stackdump captures a snapshot of every goroutine via runtime.Stack
// and parses it into per-goroutine records.
//
// This is the same text the runtime prints on
//
//	fatal error: all goroutines are asleep - deadlock!
//
// The state label in each header tells you what a goroutine is parked on:
//
//	[running]            executing on an OS thread
//	[runnable]           ready, waiting for a thread
//	[chan receive]       blocked on <-ch
//	[chan send]          blocked on ch <- v
//	[select]             blocked in select, every case blocking
//	[sync.Mutex.Lock]    blocked acquiring a mutex (shown as [semacquire] before Go 1.22)
//	[sync.Cond.Wait]     parked on a condition variable
//	[sync.WaitGroup.Wait]
//	[IO wait]            blocked in the network poller
//	[sleep]              inside time.Sleep
package stackdump

import (
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
)

// Goroutine is one entry of a dump.
type Goroutine struct {
	ID    int
	State string   // label inside the brackets, without the wait duration
	Wait  string   // e.g. "2 minutes"; empty when the runtime omits it
	Funcs []string // function frames, innermost first, without file lines

	// CreatedBy is the "created by" line naming the go statement that
	// started this goroutine. It is not a frame and Calls ignores it.
	CreatedBy string
}

// Capture returns every goroutine currently alive, including the caller.
func Capture() []Goroutine {
	buf := make([]byte, 256*1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return Parse(string(buf[:n]))
		}
		buf = make([]byte, 2*len(buf))
	}
}

// Parse splits runtime.Stack(all=true) output into goroutines. Blocks it
// cannot parse are skipped.
func Parse(raw string) []Goroutine {
	var out []Goroutine
	for _, block := range strings.Split(strings.TrimSpace(raw), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")

		g, ok := parseHeader(lines[0])
		if !ok {
			continue
		}
		for _, l := range lines[1:] {
			// File lines are tab-indented; everything else is a call.
			if l == "" || strings.HasPrefix(l, "\t") {
				continue
			}
			if creator, ok := strings.CutPrefix(l, "created by "); ok {
				g.CreatedBy = creator
				continue
			}
			g.Funcs = append(g.Funcs, l)
		}
		out = append(out, g)
	}
	return out
}

// parseHeader reads "goroutine N [state, wait]:".
func parseHeader(line string) (Goroutine, bool) {
	rest, ok := strings.CutPrefix(line, "goroutine ")
	if !ok {
		return Goroutine{}, false
	}
	idStr, rest, ok := strings.Cut(rest, " ")
	if !ok {
		return Goroutine{}, false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return Goroutine{}, false
	}
	open := strings.IndexByte(rest, '[')
	end := strings.LastIndexByte(rest, ']')
	if open < 0 || end < open {
		return Goroutine{}, false
	}

	g := Goroutine{ID: id}
	label := rest[open+1 : end]
	state, wait, _ := strings.Cut(label, ", ")
	g.State = state
	g.Wait = wait
	return g, true
}

// Blocked reports whether the goroutine is parked rather than running or
// waiting for a thread.
func (g Goroutine) Blocked() bool {
	switch g.State {
	case "running", "runnable", "syscall":
		return false
	}
	return true
}

// Calls reports whether any frame's function name contains fn.
func (g Goroutine) Calls(fn string) bool {
	for _, f := range g.Funcs {
		if strings.Contains(f, fn) {
			return true
		}
	}
	return false
}

// Filter keeps the goroutines for which keep returns true.
func Filter(gs []Goroutine, keep func(Goroutine) bool) []Goroutine {
	var out []Goroutine
	for _, g := range gs {
		if keep(g) {
			out = append(out, g)
		}
	}
	return out
}

// Parked returns the blocked goroutines that have fn somewhere on their
// stack.
func Parked(fn string) []Goroutine {
	return Filter(Capture(), func(g Goroutine) bool {
		return g.Blocked() && g.Calls(fn)
	})
}

// Write prints each goroutine's header and up to maxFrames frames.
func Write(w io.Writer, gs []Goroutine, maxFrames int) {
	for _, g := range gs {
		if g.Wait != "" {
			fmt.Fprintf(w, "  goroutine %d [%s, %s]:\n", g.ID, g.State, g.Wait)
		} else {
			fmt.Fprintf(w, "  goroutine %d [%s]:\n", g.ID, g.State)
		}
		limit := min(len(g.Funcs), maxFrames)
		for _, f := range g.Funcs[:limit] {
			fmt.Fprintf(w, "    %s\n", f)
		}
		if len(g.Funcs) > limit {
			fmt.Fprintf(w, "    ... (+%d frames)\n", len(g.Funcs)-limit)
		}
	}
}
