// Package registry holds the canonical parameter state: the immutable
// builtin schema plus the custom set of the currently active avatar.
// The registry is not safe for concurrent use; every mutation and read
// goes through the hub's single event loop.
package registry

import (
	"errors"
	"fmt"
	"time"

	"oscbridge/param"
)

// ErrUnknownAddress rejects an update for an address that is in neither
// the builtin schema nor the active custom set.
var ErrUnknownAddress = errors.New("unknown parameter address")

// ErrTypeMismatch rejects an update whose value tag differs from the
// parameter's declared type.
var ErrTypeMismatch = errors.New("parameter type mismatch")

// Registry is the merged, deduplicated parameter view.
type Registry struct {
	builtins []*param.Parameter // schema order
	custom   []*param.Parameter // discovery order
	byAddr   map[string]*param.Parameter

	avatarID string
	source   string
	dropped  int
}

// New builds a registry over the builtin schema. Duplicate builtin
// addresses indicate a broken schema and abort startup.
func New(builtins []param.Parameter) (*Registry, error) {
	r := &Registry{
		builtins: make([]*param.Parameter, 0, len(builtins)),
		byAddr:   make(map[string]*param.Parameter, len(builtins)),
	}
	for i := range builtins {
		p := builtins[i]
		if _, exists := r.byAddr[p.Address]; exists {
			return nil, fmt.Errorf("duplicate builtin address %s", p.Address)
		}
		r.builtins = append(r.builtins, &p)
		r.byAddr[p.Address] = &p
	}
	return r, nil
}

// Merge replaces the active custom set wholesale. Candidates whose address
// collides with a builtin are dropped: the builtin always wins, by exact
// case-sensitive address equality. A duplicate within the candidate set
// itself keeps the first occurrence. Returns the accepted parameters in
// discovery order and the number of dropped candidates.
func (r *Registry) Merge(avatarID, source string, custom []param.Parameter) (accepted []param.Parameter, dropped int) {
	for _, p := range r.custom {
		delete(r.byAddr, p.Address)
	}
	r.custom = r.custom[:0]

	for i := range custom {
		p := custom[i]
		if _, exists := r.byAddr[p.Address]; exists {
			dropped++
			continue
		}
		p.Origin = param.OriginCustom
		r.custom = append(r.custom, &p)
		r.byAddr[p.Address] = &p
		accepted = append(accepted, p)
	}

	r.avatarID = avatarID
	r.source = source
	r.dropped = dropped
	return accepted, dropped
}

// Apply updates the value of a known parameter. The value's type tag must
// equal the declared type; there is no coercion. Returns a copy of the
// updated parameter.
func (r *Registry) Apply(address string, v param.Value) (param.Parameter, error) {
	p, ok := r.byAddr[address]
	if !ok {
		return param.Parameter{}, fmt.Errorf("%w: %s", ErrUnknownAddress, address)
	}
	if v.Type() != p.Type {
		return param.Parameter{}, fmt.Errorf("%w: %s declared %s, got %s",
			ErrTypeMismatch, address, p.Type, v.Type())
	}
	p.Value = &v
	p.UpdatedAt = time.Now()
	return *p, nil
}

// Lookup returns a copy of the parameter at an address, if known.
func (r *Registry) Lookup(address string) (param.Parameter, bool) {
	p, ok := r.byAddr[address]
	if !ok {
		return param.Parameter{}, false
	}
	return *p, true
}

// Snapshot returns the full merged state: builtins in schema order, then
// accepted custom parameters in discovery order.
func (r *Registry) Snapshot() []param.Parameter {
	out := make([]param.Parameter, 0, len(r.builtins)+len(r.custom))
	for _, p := range r.builtins {
		out = append(out, *p)
	}
	for _, p := range r.custom {
		out = append(out, *p)
	}
	return out
}

// AvatarID is the id of the avatar whose custom set is active, empty
// before the first avatar change.
func (r *Registry) AvatarID() string { return r.avatarID }

// Dropped is the number of custom candidates discarded by the last Merge.
func (r *Registry) Dropped() int { return r.dropped }
