// Package openai streams completions from OpenAI's Responses API
// (/v1/responses).
//
// Requests are stateless (store=false): reasoning items come back encrypted
// and are kept verbatim as thinking-part metadata so a later turn to the same
// model can replay them. Output item ids travel as metadata of text and
// tool-call parts for the same reason.
//
// The main entry point is [New]. The endpoint defaults to the public API and
// can be overridden with [WithBaseURL], per model, or through
// OPENAI_API_BASE_URL. Service tiers are requested through
// [ai.ResolvedOptions] and priced with the tier multiplier.
package openai
