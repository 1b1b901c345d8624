// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentExtractor: Turns uploaded bytes into page texts
//   - EmbeddingProvider: Maps text to vectors
//   - VectorStore / VectorIndex: Named collections answering nearest-neighbour queries
//   - HistoryStore: Conversation history owned by the session
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - GenerationBackend: Streams answers. Without it, only retrieval is available.
//   - PromptStore: Customised prompts. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or driving package
package driven
