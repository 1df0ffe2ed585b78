package domain

import "time"

// BlockTimeRegime captures the historical block-time change: blocks before
// SwitchBlock were produced at PreInterval, blocks after at PostInterval.
// Backward search windows must be sized against the regime in effect, not a
// single average, or pre-switch windows come out several times too small.
type BlockTimeRegime struct {
	SwitchBlock  uint64
	PreInterval  time.Duration
	PostInterval time.Duration
}

// BlocksBefore returns how many blocks cover the duration d ending at block
// end, crossing the regime switch when the window spans it.
func (r BlockTimeRegime) BlocksBefore(end uint64, d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	interval := r.PostInterval
	if end <= r.SwitchBlock {
		interval = r.PreInterval
	}
	if interval <= 0 {
		return 0
	}
	blocks := uint64(d / interval)
	if end > r.SwitchBlock && end-r.SwitchBlock < blocks {
		// The window reaches back across the switch; the remainder is
		// covered at the slower pre-switch rate.
		post := end - r.SwitchBlock
		remaining := d - time.Duration(post)*r.PostInterval
		if r.PreInterval > 0 {
			blocks = post + uint64(remaining/r.PreInterval)
		}
	}
	return blocks
}
