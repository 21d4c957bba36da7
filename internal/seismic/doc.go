// Package seismic locates the epicenter of an earthquake from P- and S-wave
// arrival times recorded at three ground stations.
//
// # Distance From Arrival Times
//
// P-waves travel faster than S-waves, so the lag between their arrivals at a
// station grows with distance to the source. For a crust with S-wave velocity
// Vs and P-wave velocity Vp, the distance is
//
//	d = Tsp * Vs*Vp / (Vp - Vs)
//
// The defaults (Vs = 3.67 km/s, Vp = 6.34 km/s) are averages for Californian
// crustal rocks. Other regions construct their own [Model].
//
// The lag is truncated to whole seconds. Arrival times are parsed as time of
// day only, so both readings at a station must come from the same clock on the
// same day.
//
// # Magnitude, Moment, Energy
//
//	M  = ln(amplitude_mm) + 3*ln(8*Tsp) - 2.92
//	M0 = 10^(1.5*(M + 16))            dyne-cm
//	E  = M0 / 20000                   ergs ("moment" method)
//	E  = 10^(11.8 + 1.5*M)            ergs ("magnitude" method)
//
// The logarithms are natural logarithms.
//
// # Trilateration
//
// Stations are projected onto an Earth-centered, Earth-fixed frame on a sphere
// of radius 6371 km. A local orthonormal basis anchored at the first station
// reduces the three-sphere intersection to closed-form planar equations. Of
// the two mirror-image roots only the one on the +z side of the basis is
// returned; see [SolveEpicenter].
package seismic
