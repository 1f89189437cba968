// Package pathexpr implements the dot/bracket path grammar used
// throughout FlowRunner: "a.b[0].c" walks map key "a", then key "b", then
// list index 0, then key "c". See Get and Set.
package pathexpr
