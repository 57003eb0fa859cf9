package cli

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ledgerkit/bundler/internal/record"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Wallet     uint8
	PayloadHex string
	Targets    []string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <bundle-id>",
		Short: "Append a sub-instruction to an accumulating bundle",
		Long: `Append one sub-instruction to a bundle that is still accumulating.
The payload is hex-encoded bytes. Each --target flag names one touched
account as label[:writable][:signer].

Example:
  bundler add 0 --wallet 0 --payload deadbeef --target vault:writable`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, args[0], cmd)
		},
	}

	cmd.Flags().Uint8Var(&opts.Wallet, "wallet", 0, "declared wallet index receiving the instruction")
	cmd.Flags().StringVar(&opts.PayloadHex, "payload", "", "instruction payload as hex bytes")
	cmd.Flags().StringArrayVar(&opts.Targets, "target", nil, "target account as label[:writable][:signer] (repeatable)")

	return cmd
}

func runAdd(opts *AddOptions, bundleArg string, cmd *cobra.Command) error {
	bundleID, err := parseBundleID(bundleArg)
	if err != nil {
		return err
	}
	payload, err := hex.DecodeString(opts.PayloadHex)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --payload hex", err)
	}
	targets, err := parseTargets(opts.Targets)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --target flag", err)
	}

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ins, err := s.engine.AddInstruction(cmd.Context(), s.authority, s.proofs, bundleID, opts.Wallet, payload, targets)
	if err != nil {
		return s.out.OperationError(err)
	}
	if opts.Format == "json" {
		return s.out.Success(instructionJSON{
			WalletIndex: ins.WalletIndex,
			Seq:         ins.Seq,
			Payload:     hex.EncodeToString(ins.Payload),
			Targets:     len(ins.Targets),
			Executed:    ins.Executed,
		})
	}
	return s.out.Success(fmt.Sprintf("added instruction seq %d to bundle %d (wallet %d, payload %dB, targets %d)",
		ins.Seq, bundleID, ins.WalletIndex, len(ins.Payload), len(ins.Targets)))
}

func parseBundleID(arg string) (uint32, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, fmt.Sprintf("invalid bundle id %q", arg), err)
	}
	return uint32(id), nil
}

// parseTargets parses label[:writable][:signer] descriptors. The label is
// hashed into the stored reference.
func parseTargets(decls []string) ([]record.TargetDescriptor, error) {
	targets := make([]record.TargetDescriptor, 0, len(decls))
	for _, d := range decls {
		parts := strings.Split(d, ":")
		if parts[0] == "" {
			return nil, fmt.Errorf("%q has no label", d)
		}
		t := record.TargetDescriptor{Ref: record.TargetFromLabel(parts[0])}
		for _, mode := range parts[1:] {
			switch mode {
			case "writable":
				t.Writable = true
			case "signer":
				t.Signer = true
			default:
				return nil, fmt.Errorf("unknown target mode %q in %q", mode, d)
			}
		}
		targets = append(targets, t)
	}
	return targets, nil
}
