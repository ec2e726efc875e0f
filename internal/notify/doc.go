// Package notify decides which compliance emails are due, sends them, and
// records every attempt in the append-only email log. The log is the only
// dedup state: the daily sweep is stateless between invocations and safe to
// re-trigger, because each one-shot kind is sent at most once per entity and
// follow-ups are spaced by reading the latest chain entry's timestamp.
package notify
