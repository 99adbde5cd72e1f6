package wt

import "strings"

type (
	// Kind tells whether a trace line opens a call or closes one already
	// opened at the same depth.
	Kind int

	// CallRecord is one parsed line of wt output.
	CallRecord struct {
		SelfTicks       uint64
		CumulativeTicks uint64
		Depth           int
		QualifiedName   string
		Kind            Kind
	}
)

const (
	Entry Kind = iota
	Return
)

func (k Kind) String() string {
	if k == Return {
		return "return"
	}
	return "entry"
}

// Module returns the module part of the qualified name, or an empty
// string when the name carries no module prefix.
func (r CallRecord) Module() string {
	if i := strings.Index(r.QualifiedName, "!"); i >= 0 {
		return r.QualifiedName[:i]
	}
	return ""
}

// Function returns the function part of the qualified name.
func (r CallRecord) Function() string {
	if i := strings.Index(r.QualifiedName, "!"); i >= 0 {
		return r.QualifiedName[i+1:]
	}
	return r.QualifiedName
}
