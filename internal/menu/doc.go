// Package menu assembles the contextual menu of an inspected item from the
// record returned by the helper and the templates of its domain.
//
// Templates hold [[token]] placeholders. A line whose tokens all render
// empty is skipped when the settings ask for it, and what empty tokens
// leave behind (brackets, repeated commas) is cleaned up. A template made
// of a single action token ([[open]], [[open-with:...]], [[script:...]],
// [[files]], [[about]]) becomes a dedicated entry.
package menu
