// Package webfetch provides a tool that fetches web pages over HTTP(S) and
// converts their HTML into Markdown for a language model.
//
// [New] returns the ready-to-register [tool.Tool]; [Fetcher.Fetch] is the
// underlying function.
package webfetch
