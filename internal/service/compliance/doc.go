// Package compliance (service) orchestrates evaluation of entities against
// their requirement templates: it loads the current requirement set and the
// entity's most recent confirmed certificate, runs the pure matcher and
// aggregator, replaces the stored result set, and persists the entity's
// status. It also implements the cascade recalculation that re-runs this
// for every entity bound to a template after the template is edited.
//
// Repository implementations live in repository/postgres.
package compliance
