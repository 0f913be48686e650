// Package preflight provides readiness checks for the directories and
// external services mover depends on.
//
// These checks run in two contexts:
//   - The daemon logs every failed check at startup. Failures are warnings;
//     the daemon still starts so it can recover once storage comes back.
//   - The CLI "mover status" command renders all results as a table.
package preflight
