// Package record defines the three persistent record types managed by the
// bundle engine (manager, bundle, instruction), their versioned binary
// codec, and the key/identity derivation used to address them in the store.
//
// Records live in a keyed, owner-tagged store with independent lifetimes;
// references between them are stored 32-byte digests, never pointers.
//
// The codec is an explicit fixed-schema layout per record type. Every layout
// starts with a magic byte and a schema version byte; any field addition
// requires a version bump. Sizes are exact and derivable up front via the
// *RecordSize functions, which is what the store's provisioning contract
// expects.
package record
