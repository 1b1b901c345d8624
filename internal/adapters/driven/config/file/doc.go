// Package file provides file-based implementations of driven port interfaces.
// Both adapters live under the user's config directory (~/.studybuddy).
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: editable prompt templates with built-in fallbacks
package file
