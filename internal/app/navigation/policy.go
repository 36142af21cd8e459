// Package navigation computes the next and previous track index.
package navigation

import "math/rand/v2"

// Policy picks neighbouring track indexes according to the shuffle mode.
// Shuffle draws are independent; there is no play history, so repeated
// "previous" presses in shuffle mode do not retrace earlier tracks.
type Policy struct {
	intN func(n int) int
}

// New creates a policy. A nil source uses the shared random generator.
func New(src rand.Source) *Policy {
	if src == nil {
		return &Policy{intN: rand.IntN}
	}
	return &Policy{intN: rand.New(src).IntN}
}

// NextIndex returns the index to play after current.
func (p *Policy) NextIndex(current, count int, shuffle bool) int {
	if count <= 0 {
		return current
	}
	if shuffle {
		return p.randomExcluding(current, count)
	}
	return (current + 1) % count
}

// PreviousIndex returns the index to play before current.
func (p *Policy) PreviousIndex(current, count int, shuffle bool) int {
	if count <= 0 {
		return current
	}
	if shuffle {
		return p.randomExcluding(current, count)
	}
	return (current - 1 + count) % count
}

// randomExcluding draws uniformly from [0, count) without current.
// A single-track sequence returns the only index.
func (p *Policy) randomExcluding(current, count int) int {
	if count == 1 {
		return 0
	}
	if current < 0 || current >= count {
		return p.intN(count)
	}
	n := p.intN(count - 1)
	if n >= current {
		n++
	}
	return n
}
