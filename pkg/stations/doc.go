// Package stations defines the records and match results shared by every
// matching tier.
//
// Source records come from the station price list and target records from the
// geospatial export. Both are immutable once loaded: tiers read them, derive
// candidates, and emit exactly one Result per source record.
package stations
