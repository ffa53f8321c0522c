// Package domain contains the core business entities for Contexta.
//
// Domain types have no dependencies on infrastructure or frameworks.
// They represent the language of the problem: documents, chunks,
// search results, and the assembled retrieval context.
//
// Import Rules:
//   - Can Import: standard library only
//   - Cannot Import: ports, services, adapters
package domain
