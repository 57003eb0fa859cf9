package cli

import (
	"github.com/spf13/cobra"
)

// ExecuteOptions holds flags for the execute command.
type ExecuteOptions struct {
	*RootOptions
	MaxComputeUnits uint32
}

// NewExecuteCommand creates the execute command.
func NewExecuteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecuteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "execute <bundle-id>",
		Short: "Execute a complete bundle atomically",
		Long: `Execute every accumulated sub-instruction of a bundle as one
atomic unit. The bundle must hold exactly as many instructions as it
declared, and the pre-flight cost estimate must fit the compute budget.

Example:
  bundler execute 0 --max-compute-units 200000`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(opts, args[0], cmd)
		},
	}

	cmd.Flags().Uint32Var(&opts.MaxComputeUnits, "max-compute-units", 0, "execution compute budget in units")

	return cmd
}

func runExecute(opts *ExecuteOptions, bundleArg string, cmd *cobra.Command) error {
	bundleID, err := parseBundleID(bundleArg)
	if err != nil {
		return err
	}

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	budget := opts.MaxComputeUnits
	if !cmd.Flags().Changed("max-compute-units") && opts.config.MaxComputeUnits != 0 {
		budget = opts.config.MaxComputeUnits
	}

	result, err := s.engine.ExecuteBundle(cmd.Context(), s.authority, s.proofs, bundleID, budget)
	if err != nil {
		// A failed execution still reports which sub-operation stopped it.
		s.out.VerboseLog("execution halted after %d applied sub-operations", result.Applied)
		return s.out.OperationError(err)
	}
	if opts.Format == "json" {
		return s.out.Success(executeToJSON(result))
	}
	return s.out.Success(renderExecuteText(result))
}
