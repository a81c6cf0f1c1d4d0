// Package jobstore is the SQLite ledger of background job runs.
//
// Every job start and terminal transition reported by the jobs Supervisor is
// written here, so `subforge jobs` can show recent history across processes.
// The schema is embedded and versioned; a mismatched database must be
// cleared rather than migrated.
package jobstore
