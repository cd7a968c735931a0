package models

import "github.com/gagliardetto/solana-go"

// PlayerProfile is the identity-side bookkeeping kept next to pacts.
// Counters are maintained after settlement, outside the settlement unit of work.
type PlayerProfile struct {
	Address solana.PublicKey `json:"address"`
	Bump    uint8            `json:"bump"`
	Owner   solana.PublicKey `json:"owner"`
	Name    string           `json:"name"`

	ActivePacts []solana.PublicKey `json:"active_pacts"`
	PactsWon    uint64             `json:"pacts_won"`
	PactsLost   uint64             `json:"pacts_lost"`
}

// Clone returns a deep copy safe to mutate
func (p *PlayerProfile) Clone() *PlayerProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.ActivePacts = append([]solana.PublicKey(nil), p.ActivePacts...)
	return &c
}

// AddActivePact records pact as active, ignoring duplicates
func (p *PlayerProfile) AddActivePact(pact solana.PublicKey) {
	for _, existing := range p.ActivePacts {
		if existing.Equals(pact) {
			return
		}
	}
	p.ActivePacts = append(p.ActivePacts, pact)
}

// RemoveActivePact drops pact from the active list
func (p *PlayerProfile) RemoveActivePact(pact solana.PublicKey) {
	kept := p.ActivePacts[:0]
	for _, existing := range p.ActivePacts {
		if !existing.Equals(pact) {
			kept = append(kept, existing)
		}
	}
	p.ActivePacts = kept
}
