// Package cypher is the sole channel through which the store issues
// parameterized queries against the backing graph database.
//
// The boundary owns no business logic: it resolves registered query names to
// Cypher text, executes statements through an injected Runner, and decodes
// rows into typed values via the label-dispatched mappers. Transactions are
// supplied by the caller's surrounding scope; the boundary never spans one
// logical operation across multiple independently committed transactions.
package cypher
