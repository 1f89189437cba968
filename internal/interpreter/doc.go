// Package interpreter implements the Step Interpreter: it dispatches
// Request/Condition/Loop steps against a per-iteration context, applying
// deep-copy isolation for Condition branches (merged back on return) and
// Loop iterations (never merged back, only propagated on error). See
// Interpreter.Execute and spec.md §4.7.
package interpreter
