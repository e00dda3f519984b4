package core

import "strings"

// Issues is a set of input malformations found on a record.
type Issues uint8

const (
	IssueTimestamp Issues = 1 << iota // createdAt missing or unparseable
	IssueAmount                       // amount non-numeric or negative
	IssueCategory                     // category not in the closed set
)

func (i Issues) Has(flag Issues) bool {
	return i&flag != 0
}

func (i Issues) String() string {
	if i == 0 {
		return "none"
	}
	var parts []string
	if i.Has(IssueTimestamp) {
		parts = append(parts, "timestamp")
	}
	if i.Has(IssueAmount) {
		parts = append(parts, "amount")
	}
	if i.Has(IssueCategory) {
		parts = append(parts, "category")
	}
	return strings.Join(parts, "|")
}

// Observer receives input-malformation reports. Implementations must not
// block; the core never fails because of a malformed record.
type Observer interface {
	Malformed(kind Issues, recordID string, detail string)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(kind Issues, recordID string, detail string)

func (f ObserverFunc) Malformed(kind Issues, recordID string, detail string) {
	f(kind, recordID, detail)
}

type nopObserver struct{}

func (nopObserver) Malformed(Issues, string, string) {}

// NopObserver discards all reports.
var NopObserver Observer = nopObserver{}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return NopObserver
	}
	return o
}
