// Package services contains the core retrieval logic: the cached
// embedding client, the hybrid retriever, score fusion, confidence
// scoring, context assembly, and the engine façade that orchestrates
// them.
//
// Services depend only on domain types and driven ports; they have no
// knowledge of concrete storage or embedding backends.
package services
