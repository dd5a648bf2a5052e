// Package aggregate derives dashboard statistics from cached collections.
// Functions are pure and tolerate dangling references: a vehicle naming an
// unknown location or a task naming an unknown member is counted where it
// points and nowhere else. Percentages are rounded and 0 for empty sets.
package aggregate
