// Package enrich is a bounded-concurrency row engine. It applies a caller
// supplied row function to every row of a table, retries declared transient
// failures, classifies each outcome into reserved result columns and
// reassembles an output table in input order.
//
// In LOG mode failures are captured per row and the run always completes. In
// FAIL mode the first unrecoverable row error stops dispatch and the run
// returns a *RowFailure with no output.
package enrich
