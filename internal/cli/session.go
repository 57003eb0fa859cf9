package cli

import (
	"github.com/spf13/cobra"

	"github.com/ledgerkit/bundler/internal/engine"
	"github.com/ledgerkit/bundler/internal/record"
	"github.com/ledgerkit/bundler/internal/store"
)

// session bundles the opened store, the engine over it, and the acting
// authority for one command invocation. The CLI is a trusted dispatcher: it
// vouches for its configured authority, so the proof set holds exactly that
// identity.
type session struct {
	store     *store.Store
	engine    *engine.Engine
	authority record.AuthorityID
	proofs    engine.Proofs
	out       *OutputFormatter
}

// openSession resolves the authority, opens the record database, and builds
// the engine. Callers must Close the session when done.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg := opts.config
	if cfg.Authority == "" {
		return nil, NewExitError(ExitCommandError, "no authority configured: pass --authority or set it in the config file")
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening record database "+cfg.Database, err)
	}

	auth := record.AuthorityFromLabel(cfg.Authority)
	return &session{
		store:     st,
		engine:    engine.New(st),
		authority: auth,
		proofs:    engine.NewProofs(auth),
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}
