// Package params holds the governed operating parameters of the
// treasury: the credit buffer band and the bound funding stream.
package params

import (
	"github.com/xraph/treasury/funding"
	"github.com/xraph/treasury/types"
)

// Parameters is the single governed parameter set. MinBuffer and
// MaxBuffer bound the credit sink band (MinBuffer <= MaxBuffer always
// holds once set). VestID binds the funding stream; Award is a snapshot
// of that stream's schedule taken at binding time.
type Parameters struct {
	types.Entity
	MinBuffer types.Amount   `json:"min_buffer"`
	MaxBuffer types.Amount   `json:"max_buffer"`
	VestID    uint64         `json:"vest_id,omitempty"`
	Award     *funding.Award `json:"award,omitempty"`
}

// Bound reports whether a funding stream has been bound.
func (p *Parameters) Bound() bool {
	return p.VestID != 0
}
