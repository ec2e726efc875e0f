// Package domain holds the core types shared across the compliance tracker:
// requirement templates, entities, certificates, extracted coverage facts,
// compliance results, and the notification log.
//
// Types here carry no behavior beyond small derivations; all persistence is
// in repository/postgres and all business rules live in the compliance,
// expiration, notify, and service packages.
package domain
