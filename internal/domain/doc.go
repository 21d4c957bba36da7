// Package domain turns epicenter solve requests into epicenter reports.
//
// # Request Shape
//
// A request carries exactly three station readings. Each reading names a
// station, places it either by coordinates or by a free-form address, and
// records the P and S wave arrival times plus the peak amplitude in
// millimeters:
//
//	{"id":"quake-1","stations":[
//	  {"name":"Eureka","lat":40.8021,"lon":-124.1637,
//	   "p_arrival":"00:00:00","s_arrival":"00:00:49","amplitude_mm":250},
//	  {"name":"Elko","address":"Elko, NV", ...},
//	  ...]}
//
// An optional "model" object overrides the service velocity model for one
// request (vs, vp, time_layout, energy_method). Zero fields keep the
// service value.
//
// # Processing
//
// Address-only stations are forward geocoded by [ResolveStations]. [Locate]
// derives each station's wave-arrival event and solves for the epicenter
// with the seismic package. [EnrichWithGeocoding] then reverse geocodes the
// epicenter for a human-readable place name; that step never fails a
// request.
//
// Each station summary carries a residual: the arrival-time distance
// estimate minus the great-circle distance from the solved epicenter. Large
// residuals point at a bad reading.
//
// # ID Generation
//
// Requests without an ID take the message key. Failing that, the ID is a
// SHA-256 hash of the readings, so replays produce the same report key. See
// [generateID].
package domain
