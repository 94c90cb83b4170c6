// Package gemini adapts Google's Gemini API to [ai.StreamProvider].
//
// Requests go through the official google.golang.org/genai client. Each
// streamed chunk carries whole parts: consecutive text or thought parts are
// coalesced into one unified part, function calls arrive complete, and a
// thought signature is attached as round-trip metadata when its part closes.
package gemini
