// Package engine implements the bundle lifecycle state machine and its
// atomic execution protocol.
//
// Five operations mutate the record store: Initialize and SetPausedState
// (manager lifecycle), CreateBundle (bundle lifecycle), AddInstruction
// (accumulation), and ExecuteBundle (execution). Every operation is a
// short, synchronous validate-then-commit unit: it loads the records it
// needs inside a store transaction, runs the authority guard and all
// validation, mutates in memory, and persists only after every check
// passes. No error leaves a partial write behind.
//
// The one documented exception is ExecuteBundle: a sub-instruction failure
// during the apply phase still persists the bundle's transition to Failed
// (and the manager's active-count decrement), because already-applied
// sub-operations cannot be rolled back in the host environment. Callers
// must treat an ExecutionFailed error as a committed terminal transition.
//
// Cross-call concurrency is resolved at the store: counter updates ride the
// operation's transaction, and the transition into Executing is a versioned
// compare-and-set, so of two racing ExecuteBundle calls exactly one claims
// the bundle and the other observes Executing and fails InvalidState.
//
// The execution environment (cost estimation and sub-instruction effects)
// is a collaborator behind the Environment interface; the engine consumes
// cost estimates and a budget ceiling without defining the host's pricing.
package engine
