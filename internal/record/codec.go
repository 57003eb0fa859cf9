package record

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrDeserialization is wrapped by every decode failure: bad magic, schema
// version mismatch, truncation, trailing bytes, or out-of-range field values.
var ErrDeserialization = errors.New("record deserialization failure")

// Schema layout constants. Any change to a record layout requires bumping
// the corresponding version — layouts are never inferred.
const (
	managerMagic     = 'M'
	bundleMagic      = 'B'
	instructionMagic = 'I'

	managerVersion     = 1
	bundleVersion      = 1
	instructionVersion = 1
)

// Layout bounds implied by the length-prefix widths.
const (
	MaxPayloadBytes = 1<<16 - 1 // payload length prefix is u16
	MaxTargets      = 255       // target count prefix is u8
)

const (
	// ManagerRecordSize is the exact encoded size of a manager record:
	// header(2) + authority(32) + capacity/multiplier/paused(3) +
	// activeBundles(2) + totalExecuted(4) + nextSequence(4).
	ManagerRecordSize = 2 + 32 + 3 + 2 + 4 + 4

	bundleFixedSize      = 2 + 32 + 32 + 4 + 8 + 8 + 8 + 1 + 2 + 1
	instructionFixedSize = 2 + 32 + 1 + 2 + 1 + 2 + 1
	targetSize           = 32 + 1 + 1
)

// BundleRecordSize is the exact encoded size of a bundle record with the
// given wallet count: fixed header plus two bytes per wallet slot.
func BundleRecordSize(walletCount int) int {
	return bundleFixedSize + 2*walletCount
}

// InstructionRecordSize is the exact encoded size of an instruction record
// with the given payload and target list lengths.
func InstructionRecordSize(payloadLen, targetCount int) int {
	return instructionFixedSize + payloadLen + targetSize*targetCount
}

// EncodeManager serializes a manager record in schema version 1.
func EncodeManager(m ManagerRecord) []byte {
	buf := make([]byte, 0, ManagerRecordSize)
	buf = append(buf, managerMagic, managerVersion)
	buf = append(buf, m.Authority[:]...)
	buf = append(buf, m.BundleCapacity, m.FeeMultiplier, encodeBool(m.Paused))
	buf = binary.LittleEndian.AppendUint16(buf, m.ActiveBundles)
	buf = binary.LittleEndian.AppendUint32(buf, m.TotalExecuted)
	buf = binary.LittleEndian.AppendUint32(buf, m.NextSequence)
	return buf
}

// DecodeManager parses a manager record, verifying magic, version, and exact
// length.
func DecodeManager(data []byte) (ManagerRecord, error) {
	var m ManagerRecord
	d, err := newDecoder(data, managerMagic, managerVersion, "manager")
	if err != nil {
		return m, err
	}
	d.bytes(m.Authority[:])
	m.BundleCapacity = d.u8()
	m.FeeMultiplier = d.u8()
	m.Paused = d.boolean()
	m.ActiveBundles = d.u16()
	m.TotalExecuted = d.u32()
	m.NextSequence = d.u32()
	if err := d.finish("manager"); err != nil {
		return ManagerRecord{}, err
	}
	return m, nil
}

// EncodeBundle serializes a bundle record in schema version 1. The parallel
// arrays must agree with WalletCount and respect MaxWallets.
func EncodeBundle(b BundleRecord) ([]byte, error) {
	if int(b.WalletCount) != len(b.WalletIndexes) || len(b.WalletIndexes) != len(b.InstructionCounts) {
		return nil, fmt.Errorf("encode bundle: wallet arrays disagree with count %d", b.WalletCount)
	}
	if len(b.WalletIndexes) > MaxWallets {
		return nil, fmt.Errorf("encode bundle: %d wallets exceeds cap %d", len(b.WalletIndexes), MaxWallets)
	}
	buf := make([]byte, 0, BundleRecordSize(int(b.WalletCount)))
	buf = append(buf, bundleMagic, bundleVersion)
	buf = append(buf, b.ManagerRef[:]...)
	buf = append(buf, b.Authority[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, b.BundleID)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(b.CreatedAt))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(b.ExecutionStartedAt))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(b.ExecutionCompletedAt))
	buf = append(buf, uint8(b.Status))
	buf = binary.LittleEndian.AppendUint16(buf, b.PriorityFee)
	buf = append(buf, b.WalletCount)
	for i := range b.WalletIndexes {
		buf = append(buf, b.WalletIndexes[i], b.InstructionCounts[i])
	}
	return buf, nil
}

// DecodeBundle parses a bundle record, verifying magic, version, status
// range, wallet cap, and exact length.
func DecodeBundle(data []byte) (BundleRecord, error) {
	var b BundleRecord
	d, err := newDecoder(data, bundleMagic, bundleVersion, "bundle")
	if err != nil {
		return b, err
	}
	d.bytes(b.ManagerRef[:])
	d.bytes(b.Authority[:])
	b.BundleID = d.u32()
	b.CreatedAt = int64(d.u64())
	b.ExecutionStartedAt = int64(d.u64())
	b.ExecutionCompletedAt = int64(d.u64())
	b.Status = BundleStatus(d.u8())
	b.PriorityFee = d.u16()
	b.WalletCount = d.u8()
	if d.err == nil && b.Status > StatusFailed {
		return BundleRecord{}, fmt.Errorf("decode bundle: status %d out of range: %w", uint8(b.Status), ErrDeserialization)
	}
	if d.err == nil && b.WalletCount > MaxWallets {
		return BundleRecord{}, fmt.Errorf("decode bundle: wallet count %d exceeds cap %d: %w", b.WalletCount, MaxWallets, ErrDeserialization)
	}
	b.WalletIndexes = make([]uint8, b.WalletCount)
	b.InstructionCounts = make([]uint8, b.WalletCount)
	for i := 0; i < int(b.WalletCount); i++ {
		b.WalletIndexes[i] = d.u8()
		b.InstructionCounts[i] = d.u8()
	}
	if err := d.finish("bundle"); err != nil {
		return BundleRecord{}, err
	}
	return b, nil
}

// EncodeInstruction serializes an instruction record in schema version 1.
func EncodeInstruction(ins InstructionRecord) ([]byte, error) {
	if len(ins.Payload) > MaxPayloadBytes {
		return nil, fmt.Errorf("encode instruction: payload %d bytes exceeds cap %d", len(ins.Payload), MaxPayloadBytes)
	}
	if len(ins.Targets) > MaxTargets {
		return nil, fmt.Errorf("encode instruction: %d targets exceeds cap %d", len(ins.Targets), MaxTargets)
	}
	buf := make([]byte, 0, InstructionRecordSize(len(ins.Payload), len(ins.Targets)))
	buf = append(buf, instructionMagic, instructionVersion)
	buf = append(buf, ins.BundleRef[:]...)
	buf = append(buf, ins.WalletIndex)
	buf = binary.LittleEndian.AppendUint16(buf, ins.Seq)
	buf = append(buf, encodeBool(ins.Executed))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(ins.Payload)))
	buf = append(buf, ins.Payload...)
	buf = append(buf, uint8(len(ins.Targets)))
	for _, t := range ins.Targets {
		buf = append(buf, t.Ref[:]...)
		buf = append(buf, encodeBool(t.Signer), encodeBool(t.Writable))
	}
	return buf, nil
}

// DecodeInstruction parses an instruction record, verifying magic, version,
// and exact length.
func DecodeInstruction(data []byte) (InstructionRecord, error) {
	var ins InstructionRecord
	d, err := newDecoder(data, instructionMagic, instructionVersion, "instruction")
	if err != nil {
		return ins, err
	}
	d.bytes(ins.BundleRef[:])
	ins.WalletIndex = d.u8()
	ins.Seq = d.u16()
	ins.Executed = d.boolean()
	payloadLen := d.u16()
	if d.err == nil {
		ins.Payload = make([]byte, payloadLen)
		d.bytes(ins.Payload)
	}
	targetCount := d.u8()
	if d.err == nil {
		ins.Targets = make([]TargetDescriptor, targetCount)
		for i := range ins.Targets {
			d.bytes(ins.Targets[i].Ref[:])
			ins.Targets[i].Signer = d.boolean()
			ins.Targets[i].Writable = d.boolean()
		}
	}
	if err := d.finish("instruction"); err != nil {
		return InstructionRecord{}, err
	}
	return ins, nil
}

func encodeBool(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// decoder is a cursor over an encoded record. The first error sticks; finish
// reports it (or trailing bytes) wrapped in ErrDeserialization.
type decoder struct {
	buf []byte
	off int
	err error
}

func newDecoder(data []byte, magic byte, version byte, kind string) (*decoder, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("decode %s: truncated header: %w", kind, ErrDeserialization)
	}
	if data[0] != magic {
		return nil, fmt.Errorf("decode %s: bad magic 0x%02x: %w", kind, data[0], ErrDeserialization)
	}
	if data[1] != version {
		return nil, fmt.Errorf("decode %s: unsupported schema version %d: %w", kind, data[1], ErrDeserialization)
	}
	return &decoder{buf: data, off: 2}, nil
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.off+n > len(d.buf) {
		d.err = fmt.Errorf("truncated at offset %d: %w", d.off, ErrDeserialization)
		return nil
	}
	out := d.buf[d.off : d.off+n]
	d.off += n
	return out
}

func (d *decoder) bytes(dst []byte) {
	src := d.take(len(dst))
	if src != nil {
		copy(dst, src)
	}
}

func (d *decoder) u8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) boolean() bool {
	return d.u8() != 0
}

func (d *decoder) u16() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (d *decoder) u32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *decoder) u64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *decoder) finish(kind string) error {
	if d.err != nil {
		return fmt.Errorf("decode %s: %w", kind, d.err)
	}
	if d.off != len(d.buf) {
		return fmt.Errorf("decode %s: %d trailing bytes: %w", kind, len(d.buf)-d.off, ErrDeserialization)
	}
	return nil
}
