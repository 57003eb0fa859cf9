package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Wallets []string
	BaseFee uint16
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a bundle declaring its wallet slots",
		Long: `Create a bundle under the configured authority's manager. Each
--wallet flag declares one wallet slot as index:count, where count is the
number of instructions that wallet will receive.

Example:
  bundler create --wallet 0:2 --wallet 1:1 --base-fee 100`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Wallets, "wallet", nil, "wallet declaration as index:count (repeatable)")
	cmd.Flags().Uint16Var(&opts.BaseFee, "base-fee", 0, "base fee scaled by the manager's multiplier")

	return cmd
}

func runCreate(opts *CreateOptions, cmd *cobra.Command) error {
	indexes, counts, err := parseWalletDeclarations(opts.Wallets)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --wallet flag", err)
	}

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	b, err := s.engine.CreateBundle(cmd.Context(), s.authority, s.proofs, indexes, counts, opts.BaseFee)
	if err != nil {
		return s.out.OperationError(err)
	}
	if opts.Format == "json" {
		return s.out.Success(bundleToJSON(b, nil))
	}
	return s.out.Success(renderBundleText(b, nil))
}

// parseWalletDeclarations parses repeated index:count pairs into the parallel
// arrays the engine expects.
func parseWalletDeclarations(decls []string) (indexes, counts []uint8, err error) {
	for _, d := range decls {
		idxStr, countStr, ok := strings.Cut(d, ":")
		if !ok {
			return nil, nil, fmt.Errorf("%q is not index:count", d)
		}
		idx, err := strconv.ParseUint(idxStr, 10, 8)
		if err != nil {
			return nil, nil, fmt.Errorf("wallet index in %q: %w", d, err)
		}
		count, err := strconv.ParseUint(countStr, 10, 8)
		if err != nil {
			return nil, nil, fmt.Errorf("instruction count in %q: %w", d, err)
		}
		indexes = append(indexes, uint8(idx))
		counts = append(counts, uint8(count))
	}
	return indexes, counts, nil
}
