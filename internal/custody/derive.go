// Package custody derives program-owned addresses and moves funds between
// custody accounts. Program-owned accounts (pacts, vaults, stake records)
// sit off the ed25519 curve, so no private key can authorize a debit; the
// only way to spend from a vault is a VaultSigner built from the exact
// derivation inputs.
package custody

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Seed labels. Each derivation starts with its label so addresses of
// different kinds can never collide.
const (
	SeedChallengePact    = "challenge_pact"
	SeedPactVault        = "pact_vault"
	SeedParticipantStake = "player_pact_profile"
	SeedPlayerProfile    = "player_profile"
)

var (
	ErrSeedTooLong   = errors.New("derivation seed exceeds 32 bytes")
	ErrEmptySeed     = errors.New("derivation seed is empty")
	ErrInvalidBump   = errors.New("bump does not reproduce the derived address")
	ErrZeroProgramID = errors.New("program id is required")
)

// Derivation is a derived address plus the canonical bump proving it
type Derivation struct {
	Address solana.PublicKey
	Bump    uint8
}

// Deriver maps semantic labels to program-derived addresses.
// It holds no state besides the program id and is safe for concurrent use.
type Deriver struct {
	programID solana.PublicKey
}

// NewDeriver creates a Deriver scoped to programID
func NewDeriver(programID solana.PublicKey) (Deriver, error) {
	if programID.IsZero() {
		return Deriver{}, ErrZeroProgramID
	}
	return Deriver{programID: programID}, nil
}

// ProgramID returns the program the derivations belong to
func (d Deriver) ProgramID() solana.PublicKey {
	return d.programID
}

// Pact derives the challenge pact address for (name, creator)
func (d Deriver) Pact(name string, creator solana.PublicKey) (Derivation, error) {
	if name == "" {
		return Derivation{}, ErrEmptySeed
	}
	return d.derive(SeedChallengePact, []byte(name), creator.Bytes())
}

// Vault derives the escrow vault bound to pact
func (d Deriver) Vault(pact solana.PublicKey) (Derivation, error) {
	return d.derive(SeedPactVault, pact.Bytes())
}

// Stake derives the stake record of participant in pact
func (d Deriver) Stake(participant, pact solana.PublicKey) (Derivation, error) {
	return d.derive(SeedParticipantStake, participant.Bytes(), pact.Bytes())
}

// Profile derives the profile address of owner
func (d Deriver) Profile(owner solana.PublicKey) (Derivation, error) {
	return d.derive(SeedPlayerProfile, owner.Bytes())
}

// VaultSigner rebuilds the spending capability of the vault bound to pact.
// It fails unless (pact, bump) reproduces vault exactly.
func (d Deriver) VaultSigner(pact, vault solana.PublicKey, bump uint8) (VaultSigner, error) {
	if d.programID.IsZero() {
		return VaultSigner{}, ErrZeroProgramID
	}
	seeds := [][]byte{[]byte(SeedPactVault), pact.Bytes(), {bump}}
	addr, err := solana.CreateProgramAddress(seeds, d.programID)
	if err != nil {
		return VaultSigner{}, fmt.Errorf("%w: %v", ErrInvalidBump, err)
	}
	if !addr.Equals(vault) {
		return VaultSigner{}, ErrInvalidBump
	}
	return VaultSigner{pact: pact, vault: vault, bump: bump, valid: true}, nil
}

func (d Deriver) derive(label string, parts ...[]byte) (Derivation, error) {
	if d.programID.IsZero() {
		return Derivation{}, ErrZeroProgramID
	}
	seeds := make([][]byte, 0, len(parts)+1)
	seeds = append(seeds, []byte(label))
	for _, part := range parts {
		if len(part) > solana.MaxSeedLength {
			return Derivation{}, fmt.Errorf("%w: %d bytes", ErrSeedTooLong, len(part))
		}
		seeds = append(seeds, part)
	}

	addr, bump, err := solana.FindProgramAddress(seeds, d.programID)
	if err != nil {
		return Derivation{}, fmt.Errorf("failed to derive %s address: %w", label, err)
	}
	return Derivation{Address: addr, Bump: bump}, nil
}
