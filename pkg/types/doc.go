// Package types defines the contracts shared by the slowcomb engine, the unit
// graph, and the storage backends: addressable sequences, terms, combinatorial
// families, persisted unit specs, the Store and Table interfaces, and the
// standard error taxonomy.
package types
