package timetable

import (
	"fmt"
	"strings"
)

// ValidityPattern is the set of service days, relative to the production
// period start, on which a vehicle journey runs.
type ValidityPattern struct {
	words []uint64
}

// NewValidityPattern returns a pattern running on the given days.
func NewValidityPattern(days ...int) *ValidityPattern {
	vp := &ValidityPattern{}
	for _, day := range days {
		vp.Add(day)
	}
	return vp
}

// EveryDay returns a pattern running on each of the first n days.
func EveryDay(n int) *ValidityPattern {
	vp := &ValidityPattern{}
	for day := range n {
		vp.Add(day)
	}
	return vp
}

func (vp *ValidityPattern) Add(day int) {
	if day < 0 {
		return
	}
	w := day / 64
	for len(vp.words) <= w {
		vp.words = append(vp.words, 0)
	}
	vp.words[w] |= 1 << uint(day%64)
}

func (vp *ValidityPattern) Remove(day int) {
	if day < 0 || day/64 >= len(vp.words) {
		return
	}
	vp.words[day/64] &^= 1 << uint(day%64)
}

// Check reports whether the pattern runs on day.
func (vp *ValidityPattern) Check(day int) bool {
	if vp == nil || day < 0 || day/64 >= len(vp.words) {
		return false
	}
	return vp.words[day/64]&(1<<uint(day%64)) != 0
}

// Empty reports whether the pattern runs on no day at all.
func (vp *ValidityPattern) Empty() bool {
	if vp == nil {
		return true
	}
	for _, w := range vp.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Format renders the first n days as a string of '0' and '1', day 0 first.
func (vp *ValidityPattern) Format(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for day := range n {
		if vp.Check(day) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// ParseValidityPattern reads a pattern written by Format.
func ParseValidityPattern(s string) (*ValidityPattern, error) {
	vp := &ValidityPattern{}
	for day, c := range s {
		switch c {
		case '1':
			vp.Add(day)
		case '0':
		default:
			return nil, fmt.Errorf("invalid validity pattern character %q at day %d", c, day)
		}
	}
	return vp, nil
}
