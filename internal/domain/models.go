package domain

// Domain contains core models shared by the demos and publishers.

// Record is one normalized result obtained from an upstream API.
type Record struct {
	// Source names the upstream API: httpbin, pokeapi or rickmorty.
	Source string `json:"source"`
	// Kind is the resource type, e.g. pokemon, character, headers. Failures use "error".
	Kind string `json:"kind"`
	Key  string `json:"key"`
	Data any    `json:"data,omitempty"`
}
