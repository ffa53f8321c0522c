// Package driving defines the interfaces that external actors call IN on.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// The CLI (or any embedding application) depends on these interfaces,
// and core services implement them.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or service package
package driving
