// Package flowconfig defines the engine's input types — Config and
// Flow — and their validation. The engine's Start boundary only ever
// accepts already-decoded values of these types; file/CLI loading is the
// concern of cmd/flowrunner, not this package.
package flowconfig
