// Package vars binds named variables to recorded functions: it keeps the
// per-direction declarations made while recording, parses the operator's
// name=value input list, checks inputs before playback and masks sensitive
// values before they reach the logs.
package vars
