// Package entity manages vendors and tenants: creation, template
// assignment, notification pausing and soft deletion. Assigning or changing
// a template immediately re-evaluates the entity against it.
package entity
