// Package model defines the core data types shared across the memlog engine:
// records, record types, physical locations, query filters and statistics.
package model
