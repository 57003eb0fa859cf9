package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerkit/bundler/internal/record"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Capacity      uint8
	FeeMultiplier uint8
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the manager record for the configured authority",
		Long: `Initialize the per-authority manager record that governs bundle
capacity, fee policy, and the pause switch. Fails if the authority already
has a manager.

Example:
  bundler init --authority alice --capacity 5 --fee-multiplier 2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().Uint8Var(&opts.Capacity, "capacity", 0,
		fmt.Sprintf("max wallet slots per bundle, 0 = uncapped up to %d", record.MaxWallets))
	cmd.Flags().Uint8Var(&opts.FeeMultiplier, "fee-multiplier", 1, "priority fee multiplier")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	capacity := opts.Capacity
	if !cmd.Flags().Changed("capacity") && opts.config.BundleCapacity != 0 {
		capacity = opts.config.BundleCapacity
	}
	multiplier := opts.FeeMultiplier
	if !cmd.Flags().Changed("fee-multiplier") && opts.config.FeeMultiplier != 0 {
		multiplier = opts.config.FeeMultiplier
	}

	m, err := s.engine.Initialize(cmd.Context(), s.authority, s.proofs, capacity, multiplier)
	if err != nil {
		return s.out.OperationError(err)
	}
	if opts.Format == "json" {
		return s.out.Success(managerToJSON(m))
	}
	return s.out.Success(renderManagerText(m))
}

// NewPauseCommand creates the pause command.
func NewPauseCommand(rootOpts *RootOptions) *cobra.Command {
	return newPausedStateCommand(rootOpts, "pause", "Pause bundle operations for the configured authority", true)
}

// NewResumeCommand creates the resume command.
func NewResumeCommand(rootOpts *RootOptions) *cobra.Command {
	return newPausedStateCommand(rootOpts, "resume", "Resume bundle operations for the configured authority", false)
}

func newPausedStateCommand(rootOpts *RootOptions, use, short string, paused bool) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			m, err := s.engine.SetPausedState(cmd.Context(), s.authority, s.proofs, paused)
			if err != nil {
				return s.out.OperationError(err)
			}
			if rootOpts.Format == "json" {
				return s.out.Success(managerToJSON(m))
			}
			return s.out.Success(renderManagerText(m))
		},
	}
}
