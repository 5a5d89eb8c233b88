// Package macro defines the recorded event model: the tagged event variants,
// timestamped events, and the Function that bundles an event sequence with
// its declared input and output variables.
package macro
