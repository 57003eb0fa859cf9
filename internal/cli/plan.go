package cli

import (
	"encoding/hex"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/ledgerkit/bundler/internal/record"
)

// Plan is a declarative batch of bundles loaded from CUE. The apply command
// creates each bundle, adds its instructions, and optionally executes it.
type Plan struct {
	Bundles []PlanBundle `json:"bundles"`
}

// PlanBundle declares one bundle: its wallet slots with their instructions,
// the base fee, and an optional execution step.
type PlanBundle struct {
	BaseFee uint16       `json:"baseFee"`
	Wallets []PlanWallet `json:"wallets"`
	Execute *PlanExecute `json:"execute"`
}

// PlanExecute asks apply to execute the bundle once populated.
type PlanExecute struct {
	MaxComputeUnits uint32 `json:"maxComputeUnits"`
}

// PlanWallet is one wallet slot; its declared instruction count is the
// length of Instructions.
type PlanWallet struct {
	Index        uint8             `json:"index"`
	Instructions []PlanInstruction `json:"instructions"`
}

// PlanInstruction is one sub-instruction with a hex payload.
type PlanInstruction struct {
	Payload string       `json:"payload"`
	Targets []PlanTarget `json:"targets"`
}

// PlanTarget names one touched account by label.
type PlanTarget struct {
	Label    string `json:"label"`
	Writable bool   `json:"writable"`
	Signer   bool   `json:"signer"`
}

// LoadPlan loads and validates a plan from a directory of CUE files. The
// plan lives under the top-level "plan" field.
func LoadPlan(dir string) (*Plan, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "plan directory "+dir, err)
	}
	if !info.IsDir() {
		return nil, NewExitError(ExitCommandError, "not a directory: "+dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, NewExitError(ExitCommandError, "no CUE instances loaded from "+dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, WrapExitError(ExitCommandError, "loading CUE files", inst.Err)
	}
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, WrapExitError(ExitCommandError, "building CUE value", err)
	}
	return decodePlan(value)
}

// CompilePlan parses a plan from CUE source text. Tests use it to avoid
// touching the filesystem.
func CompilePlan(source string) (*Plan, error) {
	value := cuecontext.New().CompileString(source)
	if err := value.Err(); err != nil {
		return nil, WrapExitError(ExitCommandError, "compiling CUE source", err)
	}
	return decodePlan(value)
}

func decodePlan(value cue.Value) (*Plan, error) {
	planVal := value.LookupPath(cue.ParsePath("plan"))
	if !planVal.Exists() {
		return nil, NewExitError(ExitCommandError, `plan has no top-level "plan" field`)
	}
	plan := &Plan{}
	if err := planVal.Decode(plan); err != nil {
		return nil, WrapExitError(ExitCommandError, "decoding plan", err)
	}
	if err := plan.validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// validate catches plan mistakes the engine would reject one bundle deep:
// empty declarations, bad hex, and slot counts past the record layout cap.
func (p *Plan) validate() error {
	if len(p.Bundles) == 0 {
		return NewExitError(ExitCommandError, "plan declares no bundles")
	}
	for bi, b := range p.Bundles {
		if len(b.Wallets) > record.MaxWallets {
			return NewExitError(ExitCommandError,
				fmt.Sprintf("bundle %d declares %d wallet slots, max %d", bi, len(b.Wallets), record.MaxWallets))
		}
		for _, w := range b.Wallets {
			for ii, ins := range w.Instructions {
				if _, err := hex.DecodeString(ins.Payload); err != nil {
					return WrapExitError(ExitCommandError,
						fmt.Sprintf("bundle %d wallet %d instruction %d payload is not hex", bi, w.Index, ii), err)
				}
			}
		}
	}
	return nil
}

// declarations returns the parallel wallet arrays for CreateBundle.
func (b *PlanBundle) declarations() (indexes, counts []uint8) {
	for _, w := range b.Wallets {
		indexes = append(indexes, w.Index)
		counts = append(counts, uint8(len(w.Instructions)))
	}
	return indexes, counts
}

// targets converts plan targets into stored descriptors.
func (i *PlanInstruction) targets() []record.TargetDescriptor {
	out := make([]record.TargetDescriptor, 0, len(i.Targets))
	for _, t := range i.Targets {
		out = append(out, record.TargetDescriptor{
			Ref:      record.TargetFromLabel(t.Label),
			Writable: t.Writable,
			Signer:   t.Signer,
		})
	}
	return out
}
