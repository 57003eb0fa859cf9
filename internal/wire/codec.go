package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/ledgerkit/bundler/internal/record"
)

// Encode serializes a command as tag byte plus variant fields.
func Encode(cmd Command) ([]byte, error) {
	switch c := cmd.(type) {
	case Initialize:
		return []byte{TagInitialize, c.BundleCapacity, c.FeeMultiplier}, nil

	case CreateBundle:
		if len(c.WalletIndexes) > 255 || len(c.InstructionCounts) > 255 {
			return nil, fmt.Errorf("encode create-bundle: sequence exceeds u8 length prefix")
		}
		buf := []byte{TagCreateBundle, uint8(len(c.WalletIndexes))}
		buf = append(buf, c.WalletIndexes...)
		buf = append(buf, uint8(len(c.InstructionCounts)))
		buf = append(buf, c.InstructionCounts...)
		return buf, nil

	case AddInstruction:
		if len(c.Payload) > record.MaxPayloadBytes {
			return nil, fmt.Errorf("encode add-instruction: payload exceeds u16 length prefix")
		}
		if len(c.Targets) > record.MaxTargets {
			return nil, fmt.Errorf("encode add-instruction: target list exceeds u8 length prefix")
		}
		buf := []byte{TagAddInstruction}
		buf = binary.LittleEndian.AppendUint32(buf, c.BundleID)
		buf = append(buf, c.WalletIndex)
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(c.Payload)))
		buf = append(buf, c.Payload...)
		buf = append(buf, uint8(len(c.Targets)))
		for _, t := range c.Targets {
			buf = append(buf, t.Ref[:]...)
			buf = append(buf, boolByte(t.Signer), boolByte(t.Writable))
		}
		return buf, nil

	case ExecuteBundle:
		buf := []byte{TagExecuteBundle}
		buf = binary.LittleEndian.AppendUint32(buf, c.BundleID)
		buf = binary.LittleEndian.AppendUint32(buf, c.MaxComputeUnits)
		return buf, nil

	case SetPausedState:
		return []byte{TagSetPausedState, boolByte(c.Paused)}, nil

	default:
		return nil, fmt.Errorf("encode: unknown command type %T", cmd)
	}
}

// Decode parses a command payload. Strict: the full payload must be
// consumed.
func Decode(data []byte) (Command, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode: empty payload: %w", ErrMalformed)
	}
	d := &reader{buf: data, off: 1}

	var cmd Command
	switch data[0] {
	case TagInitialize:
		cmd = Initialize{BundleCapacity: d.u8(), FeeMultiplier: d.u8()}

	case TagCreateBundle:
		c := CreateBundle{}
		c.WalletIndexes = d.u8Seq()
		c.InstructionCounts = d.u8Seq()
		cmd = c

	case TagAddInstruction:
		c := AddInstruction{}
		c.BundleID = d.u32()
		c.WalletIndex = d.u8()
		payloadLen := d.u16()
		if d.err == nil {
			c.Payload = make([]byte, payloadLen)
			d.bytes(c.Payload)
		}
		targetCount := d.u8()
		if d.err == nil {
			c.Targets = make([]record.TargetDescriptor, targetCount)
			for i := range c.Targets {
				d.bytes(c.Targets[i].Ref[:])
				c.Targets[i].Signer = d.u8() != 0
				c.Targets[i].Writable = d.u8() != 0
			}
		}
		cmd = c

	case TagExecuteBundle:
		cmd = ExecuteBundle{BundleID: d.u32(), MaxComputeUnits: d.u32()}

	case TagSetPausedState:
		cmd = SetPausedState{Paused: d.u8() != 0}

	default:
		return nil, fmt.Errorf("decode: unknown command tag %d: %w", data[0], ErrMalformed)
	}

	if d.err != nil {
		return nil, fmt.Errorf("decode tag %d: %w", data[0], d.err)
	}
	if d.off != len(data) {
		return nil, fmt.Errorf("decode tag %d: %d trailing bytes: %w", data[0], len(data)-d.off, ErrMalformed)
	}
	return cmd, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// reader is a cursor over a payload; the first error sticks.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.err = fmt.Errorf("truncated at offset %d: %w", r.off, ErrMalformed)
		return nil
	}
	out := r.buf[r.off : r.off+n]
	r.off += n
	return out
}

func (r *reader) bytes(dst []byte) {
	if src := r.take(len(dst)); src != nil {
		copy(dst, src)
	}
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u8Seq() []uint8 {
	n := r.u8()
	if r.err != nil {
		return nil
	}
	out := make([]uint8, n)
	r.bytes(out)
	return out
}
