package models

import "strings"

// Record is one allocatable slot in the label pool.
// A record is either free or bound to exactly one owner; the binding is
// only reachable through NewBoundRecord so owner and network identifiers
// are always set together.
type Record struct {
	Name    string
	binding *binding
}

type binding struct {
	owner      string
	networkIDs []string
}

// NewFreeRecord returns an unassigned record
func NewFreeRecord(name string) Record {
	return Record{Name: name}
}

// NewBoundRecord returns a record owned by owner. Identifiers are split
// on whitespace, the same way the table stores them, so a bound record
// always equals its reloaded copy.
func NewBoundRecord(name, owner string, networkIDs []string) Record {
	ids := make([]string, 0, len(networkIDs))
	for _, id := range networkIDs {
		ids = append(ids, strings.Fields(id)...)
	}
	return Record{
		Name:    name,
		binding: &binding{owner: owner, networkIDs: ids},
	}
}

// IsFree reports whether the record has no owner
func (r Record) IsFree() bool {
	return r.binding == nil
}

// Owner returns the device identifier holding the record, or "" when free
func (r Record) Owner() string {
	if r.binding == nil {
		return ""
	}
	return r.binding.owner
}

// NetworkIDs returns a copy of the hardware addresses recorded at bind time
func (r Record) NetworkIDs() []string {
	if r.binding == nil {
		return nil
	}
	out := make([]string, len(r.binding.networkIDs))
	copy(out, r.binding.networkIDs)
	return out
}

// Bind returns a bound copy of a free record. Binding a bound record
// returns it unchanged; bindings are never reassigned.
func (r Record) Bind(owner string, networkIDs []string) Record {
	if !r.IsFree() {
		return r
	}
	return NewBoundRecord(r.Name, owner, networkIDs)
}
