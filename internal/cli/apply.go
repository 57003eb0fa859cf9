package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

// applyOutcome reports one bundle created by the apply command.
type applyOutcome struct {
	BundleID uint32 `json:"bundle_id"`
	Added    int    `json:"added"`
	Status   string `json:"status"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <plan-dir>",
		Short: "Apply a CUE plan: create bundles, add instructions, execute",
		Long: `Load a declarative plan from a directory of CUE files and apply
it: for each declared bundle, create it, add every instruction, and, if the
plan asks for it, execute it.

Bundles are applied in order; the first rejection stops the run. Bundles
already applied stay applied.

Example:
  bundler apply ./plans/settlement`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(rootOpts, args[0], cmd)
		},
	}
}

func runApply(rootOpts *RootOptions, dir string, cmd *cobra.Command) error {
	plan, err := LoadPlan(dir)
	if err != nil {
		return err
	}

	s, err := openSession(rootOpts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	outcomes := make([]applyOutcome, 0, len(plan.Bundles))
	for _, pb := range plan.Bundles {
		indexes, counts := pb.declarations()
		b, err := s.engine.CreateBundle(cmd.Context(), s.authority, s.proofs, indexes, counts, pb.BaseFee)
		if err != nil {
			return s.out.OperationError(err)
		}
		s.out.VerboseLog("created bundle %d", b.BundleID)

		added := 0
		for _, w := range pb.Wallets {
			for _, ins := range w.Instructions {
				payload, err := hex.DecodeString(ins.Payload)
				if err != nil {
					// validate() already vetted the hex
					return WrapExitError(ExitCommandError, "plan payload", err)
				}
				if _, err := s.engine.AddInstruction(cmd.Context(), s.authority, s.proofs, b.BundleID, w.Index, payload, ins.targets()); err != nil {
					return s.out.OperationError(err)
				}
				added++
			}
		}

		status := b.Status
		if pb.Execute != nil {
			result, err := s.engine.ExecuteBundle(cmd.Context(), s.authority, s.proofs, b.BundleID, pb.Execute.MaxComputeUnits)
			if err != nil {
				return s.out.OperationError(err)
			}
			status = result.Status
		} else if added > 0 {
			// AddInstruction moved the bundle along
			current, _, err := s.engine.BundleStatus(cmd.Context(), s.authority, b.BundleID)
			if err != nil {
				return s.out.OperationError(err)
			}
			status = current.Status
		}
		outcomes = append(outcomes, applyOutcome{BundleID: b.BundleID, Added: added, Status: status.String()})
	}

	if rootOpts.Format == "json" {
		return s.out.Success(outcomes)
	}
	text := fmt.Sprintf("applied %d bundle(s)", len(outcomes))
	for _, o := range outcomes {
		text += fmt.Sprintf("\n  bundle %d: %d instruction(s), %s", o.BundleID, o.Added, o.Status)
	}
	return s.out.Success(text)
}
