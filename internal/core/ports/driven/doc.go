// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - TextStore: document and chunk persistence plus keyword search
//
// # Optional Interfaces
//
// These can be nil - the engine degrades gracefully:
//
//   - EmbeddingBackend: generates vector embeddings. Without it, the
//     vector leg is disabled and retrieval is keyword-only.
//   - TrainingDataSource: curated authoritative answers. Without it,
//     exact-match context is disabled.
//   - VectorSearcher: a TextStore may additionally implement this to
//     offload similarity search to the store instead of a local scan.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
