// Package aggregates owns the transaction boundaries of catalog writes.
//
// Services in internal/catalog compose the table-level repos from
// internal/data/repos/catalog inside ExecuteWrite, which runs one unit of work
// per transaction and maps store failures into catalog error codes.
package aggregates
