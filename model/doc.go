// Package model defines the provider-agnostic boundary for language models
// used as flux agents.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI, Anthropic) implement the Model interface in
// sub-packages so the flux engine stays decoupled from vendor SDKs; the
// fluxmesh.ModelAgent bridge exposes any Model as an Agent[string, string].
package model
