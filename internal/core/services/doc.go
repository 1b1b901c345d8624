// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The retrieval-augmentation pipeline lives here:
//
//   - IngestionService: extract, embed in one batch, upsert atomically
//   - QueryService: retrieve top-K chunks and build the generation request
//   - ChatService: run a turn and record history once an answer completes
package services
