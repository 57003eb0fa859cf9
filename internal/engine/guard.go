package engine

import "github.com/ledgerkit/bundler/internal/record"

// Proofs is the set of capability proofs presented with a request: the
// authority ids whose signatures the outer dispatcher has already verified.
// The engine never sees raw signatures, only the verified set.
type Proofs map[record.AuthorityID]struct{}

// NewProofs builds a proof set from verified authority ids.
func NewProofs(ids ...record.AuthorityID) Proofs {
	p := make(Proofs, len(ids))
	for _, id := range ids {
		p[id] = struct{}{}
	}
	return p
}

// Holds reports whether a proof for the authority is present.
func (p Proofs) Holds(id record.AuthorityID) bool {
	_, ok := p[id]
	return ok
}

// guardAuthority checks that the record's bound authority is among the
// presented proofs.
func guardAuthority(bound record.AuthorityID, proofs Proofs) error {
	if !proofs.Holds(bound) {
		return opErr(CodeUnauthorized, "no proof presented for authority %s", bound)
	}
	return nil
}

// guardUnpaused gates capacity- and state-mutating operations while the
// manager is paused. SetPausedState itself never calls it.
func guardUnpaused(m record.ManagerRecord) error {
	if m.Paused {
		return opErr(CodeManagerPaused, "manager for authority %s is paused", m.Authority)
	}
	return nil
}
