package ai

import "fmt"

// Unreachable panics for a value that a closed type switch has no case for.
// It marks the default branch of every switch over [Part], [Message] and
// [Event].
func Unreachable(v any) {
	panic(fmt.Sprintf("ai: unreachable case %T", v))
}
