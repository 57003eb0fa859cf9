package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerkit/bundler/internal/engine"
	"github.com/ledgerkit/bundler/internal/record"
	"github.com/ledgerkit/bundler/internal/wire"
)

// NewDispatchCommand creates the dispatch command.
func NewDispatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch <hex-frame>",
		Short: "Decode a wire-encoded command frame and run it",
		Long: `Decode a hex-encoded wire frame into a command and dispatch it
against the engine. This is the entry point callers use when commands
arrive pre-encoded rather than via the flag-based subcommands.

Example:
  bundler dispatch 000502`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDispatch(rootOpts, args[0], cmd)
		},
	}
}

func runDispatch(rootOpts *RootOptions, frameHex string, cmd *cobra.Command) error {
	frame, err := hex.DecodeString(frameHex)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid hex frame", err)
	}
	command, err := wire.Decode(frame)
	if err != nil {
		return WrapExitError(ExitCommandError, "malformed command frame", err)
	}

	s, err := openSession(rootOpts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	out, err := s.engine.Dispatch(cmd.Context(), s.authority, s.proofs, command)
	if err != nil {
		return s.out.OperationError(err)
	}

	switch v := out.(type) {
	case record.ManagerRecord:
		if rootOpts.Format == "json" {
			return s.out.Success(managerToJSON(v))
		}
		return s.out.Success(renderManagerText(v))
	case record.BundleRecord:
		if rootOpts.Format == "json" {
			return s.out.Success(bundleToJSON(v, nil))
		}
		return s.out.Success(renderBundleText(v, nil))
	case record.InstructionRecord:
		if rootOpts.Format == "json" {
			return s.out.Success(instructionJSON{
				WalletIndex: v.WalletIndex,
				Seq:         v.Seq,
				Payload:     hex.EncodeToString(v.Payload),
				Targets:     len(v.Targets),
				Executed:    v.Executed,
			})
		}
		return s.out.Success(fmt.Sprintf("added instruction seq %d (wallet %d, payload %dB, targets %d)",
			v.Seq, v.WalletIndex, len(v.Payload), len(v.Targets)))
	case engine.ExecuteResult:
		if rootOpts.Format == "json" {
			return s.out.Success(executeToJSON(v))
		}
		return s.out.Success(renderExecuteText(v))
	default:
		return fmt.Errorf("unexpected dispatch result %T", out)
	}
}
