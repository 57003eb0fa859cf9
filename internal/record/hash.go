package record

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity. The version suffix enables
// future algorithm migration without colliding with old digests.
const (
	domainAuthority   = "bundler/authority/v1"
	domainTarget      = "bundler/target/v1"
	domainRef         = "bundler/ref/v1"
	domainInstruction = "bundler/instruction/v1"
)

// hashWithDomain computes SHA-256 over domain + 0x00 + data. The null
// separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// RefOf derives the stored foreign reference for a record key.
func RefOf(key string) Ref {
	return Ref(hashWithDomain(domainRef, []byte(key)))
}

// InstructionID computes a content-addressed identity for an instruction,
// stable across restarts given the same bundle, slot, payload, and sequence.
// Used for log correlation and environment diagnostics, not for addressing
// (instructions are addressed by key, see InstructionKey).
func InstructionID(bundleRef Ref, walletIndex uint8, seq uint16, payload []byte) string {
	buf := make([]byte, 0, 32+1+2+len(payload))
	buf = append(buf, bundleRef[:]...)
	buf = append(buf, walletIndex)
	buf = binary.LittleEndian.AppendUint16(buf, seq)
	buf = append(buf, payload...)
	sum := hashWithDomain(domainInstruction, buf)
	return hex.EncodeToString(sum[:])
}
