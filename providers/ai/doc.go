// Package ai defines the backend-agnostic streaming model shared by every
// adapter: content parts, conversation messages, lifecycle events, the
// generic [EventStream] primitive and the [StreamController] each adapter
// drives to build its assistant message.
//
// A call produces a [MessageStream]. Consumers pull [Event] values from it in
// order (every event carries a snapshot of the message under construction)
// and read the final [AssistantMessage] through [EventStream.Result] or
// [MessageStream.ResultOrError]. Adapters implement [StreamProvider] and never
// touch the stream directly: they only call controller operations, which
// mutate the draft message and emit the matching events.
//
// Content parts, messages and events are closed sets. Type switches over
// them end with a call to [Unreachable].
package ai
