// Package schedule holds the schedule data model returned by the calendar
// server and the persistent app stores built on it.
package schedule
