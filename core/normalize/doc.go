// Package normalize rewrites an arbitrary conversation into the form a
// specific target model accepts.
//
// System text is merged into one string. Assistant turns produced by the
// target model are kept verbatim, while turns from any other backend or model
// lose their thinking parts and all round-trip metadata. Tool calls and tool
// results always stay structured; a tool call that never received a result is
// answered with a synthetic error result so every backend's tool protocol
// stays balanced. Normalizing an already normalized conversation for the same
// model changes nothing.
package normalize
