package cli

import (
	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status [bundle-id]",
		Short: "Show manager status, or one bundle with its instructions",
		Long: `Without arguments, show the configured authority's manager record.
With a bundle id, show that bundle and every accumulated instruction.

Examples:
  bundler status
  bundler status 2`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 0 {
				m, err := s.engine.ManagerStatus(cmd.Context(), s.authority)
				if err != nil {
					return s.out.OperationError(err)
				}
				if rootOpts.Format == "json" {
					return s.out.Success(managerToJSON(m))
				}
				return s.out.Success(renderManagerText(m))
			}

			bundleID, err := parseBundleID(args[0])
			if err != nil {
				return err
			}
			b, ins, err := s.engine.BundleStatus(cmd.Context(), s.authority, bundleID)
			if err != nil {
				return s.out.OperationError(err)
			}
			if rootOpts.Format == "json" {
				return s.out.Success(bundleToJSON(b, ins))
			}
			return s.out.Success(renderBundleText(b, ins))
		},
	}
}
