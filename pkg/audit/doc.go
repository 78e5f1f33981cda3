// Package audit exports terminal task outcomes to SQLite.
//
// The sink is write-only: nothing in the dispatcher reads the database
// back, so losing records (a full buffer, a failed insert) never affects
// processing. Workers hand outcomes to a buffered channel and a single
// writer goroutine performs the inserts; when the buffer is full the
// outcome is dropped and counted.
//
// A retention pruner deletes old rows on a cron schedule, by age and by
// total row count.
package audit
