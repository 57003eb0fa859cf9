package record

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// AuthorityFromLabel derives an AuthorityID from a human-entered label.
// The label is NFC-normalized first so visually identical labels produce the
// same identity regardless of how the input was composed.
func AuthorityFromLabel(label string) AuthorityID {
	normalized := norm.NFC.String(label)
	return AuthorityID(hashWithDomain(domainAuthority, []byte(normalized)))
}

// TargetFromLabel derives a target reference from a human-entered label,
// with the same NFC normalization as AuthorityFromLabel.
func TargetFromLabel(label string) Ref {
	normalized := norm.NFC.String(label)
	return Ref(hashWithDomain(domainTarget, []byte(normalized)))
}

// ManagerKey returns the record key of the per-authority manager singleton.
func ManagerKey(authority AuthorityID) string {
	return fmt.Sprintf("manager/%x", authority[:])
}

// BundleKey returns the record key of a bundle under its manager.
func BundleKey(managerKey string, bundleID uint32) string {
	return fmt.Sprintf("%s/bundle/%08x", managerKey, bundleID)
}

// InstructionPrefix returns the key prefix under which a bundle's
// instruction records live. A lexicographic scan of this prefix yields
// instructions in insertion order.
func InstructionPrefix(bundleKey string) string {
	return bundleKey + "/ins/"
}

// InstructionKey returns the record key of an instruction by insertion
// sequence. The fixed-width hex sequence keeps lexicographic key order equal
// to insertion order.
func InstructionKey(bundleKey string, seq uint16) string {
	return fmt.Sprintf("%s%04x", InstructionPrefix(bundleKey), seq)
}
