package digest

import (
	"errors"
	"hash"
)

// ErrFinalized is returned when a State is used after Finalize
var ErrFinalized = errors.New("hash state already finalized")

// State accumulates a digest over bytes seen so far. It is single-use:
// Finalize may be called once, and Update is rejected afterwards.
type State struct {
	alg       Algorithm
	h         hash.Hash
	n         int64
	finalized bool
}

// NewState initializes a fresh accumulator for alg.
func NewState(alg Algorithm) (*State, error) {
	h, err := alg.newHash()
	if err != nil {
		return nil, err
	}
	return &State{alg: alg, h: h}, nil
}

// Update feeds p to the accumulator.
func (s *State) Update(p []byte) error {
	if s.finalized {
		return ErrFinalized
	}
	// hash.Hash.Write never returns an error
	_, _ = s.h.Write(p)
	s.n += int64(len(p))
	return nil
}

// Len returns the number of bytes fed so far.
func (s *State) Len() int64 { return s.n }

// Finalize returns the Digest and releases the underlying hash.
func (s *State) Finalize() (Digest, error) {
	if s.finalized {
		return Digest{}, ErrFinalized
	}
	s.finalized = true
	sum := s.h.Sum(nil)
	s.h = nil
	return Digest{alg: s.alg, sum: sum}, nil
}
