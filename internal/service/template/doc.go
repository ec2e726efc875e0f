// Package template implements requirement template lifecycle management:
// creation, requirement edits, and deletion. Any change to a template's
// requirement set synchronously triggers a cascade recalculation of every
// entity bound to the template, so stored compliance results always
// correspond to the current rules.
package template
