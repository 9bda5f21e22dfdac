// Package store keeps a ledger of submitted asynchronous jobs.
//
// Commands record a [JobRecord] right after a provider accepts a request and
// update its status once a polling session ends. The ledger exists so that a
// job which timed out locally can be found again with `thirdbrain jobs list`
// and resumed with `thirdbrain poll`.
//
// The poller never reads the ledger; it is bookkeeping for humans.
//
// Two implementations are provided:
//
//   - [MemoryStore]: map-backed, used in tests and when the ledger is disabled
//   - [SQLiteStore]: a single SQLite file, the default for the CLI
package store
