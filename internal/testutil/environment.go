package testutil

import (
	"context"
	"sync"

	"github.com/ledgerkit/bundler/internal/record"
)

// ScriptedEnvironment is a deterministic execution environment: every
// instruction costs UnitCost, and the sub-operation at apply position
// FailAt (0-based) fails with FailErr. It records the applied instructions
// in order so tests can assert both ordering and the stop-at-first-failure
// rule.
//
// Thread-safety: safe for concurrent use via internal mutex.
type ScriptedEnvironment struct {
	UnitCost uint32 // cost charged per instruction
	FailAt   int    // apply index that fails; -1 for never
	FailErr  error  // error returned at FailAt

	mu      sync.Mutex
	applied []record.InstructionRecord
}

// NewScriptedEnvironment creates an environment where every instruction
// costs unitCost and all sub-operations succeed.
func NewScriptedEnvironment(unitCost uint32) *ScriptedEnvironment {
	return &ScriptedEnvironment{UnitCost: unitCost, FailAt: -1}
}

// EstimateCost charges the flat unit cost.
func (s *ScriptedEnvironment) EstimateCost(record.InstructionRecord) uint32 {
	return s.UnitCost
}

// Apply records the instruction and fails if this is the scripted position.
func (s *ScriptedEnvironment) Apply(_ context.Context, ins record.InstructionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAt >= 0 && len(s.applied) == s.FailAt {
		return s.FailErr
	}
	s.applied = append(s.applied, ins)
	return nil
}

// Applied returns a copy of the instructions applied so far, in order.
func (s *ScriptedEnvironment) Applied() []record.InstructionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]record.InstructionRecord(nil), s.applied...)
}
