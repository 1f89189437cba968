// Package condition implements the Condition step's operator table:
// equals/not_equals (with numeric/bool/null coercion), numeric
// comparisons, string predicates, regex matching, existence, and type
// checks. See Evaluate.
package condition
