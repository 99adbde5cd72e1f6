package wt

import (
	"regexp"
	"strconv"
)

// lineRegex matches one wt call line: self ticks, cumulative ticks, the
// bracketed depth, then the qualified name. The indentation in front of
// the name mirrors the depth visually but the bracketed integer is the
// source of truth.
var lineRegex = regexp.MustCompile(`^\s*(\d+)\s+(\d+)\s+\[\s*(\d+)\]\s+(\S+)`)

// ParseLine parses a single raw trace line into a CallRecord. Lines that
// do not match the grammar (banners such as "Tracing ... to return
// address ...", blank lines, truncation markers) are noise: ok is false
// and the record must be discarded. Kind is always Entry here; the
// Reader reclassifies records against their predecessor.
func ParseLine(raw string) (CallRecord, bool) {
	m := lineRegex.FindStringSubmatch(raw)
	if m == nil {
		return CallRecord{}, false
	}

	self, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return CallRecord{}, false
	}
	cumulative, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return CallRecord{}, false
	}
	depth, err := strconv.Atoi(m[3])
	if err != nil {
		return CallRecord{}, false
	}

	return CallRecord{
		SelfTicks:       self,
		CumulativeTicks: cumulative,
		Depth:           depth,
		QualifiedName:   m[4],
	}, true
}
