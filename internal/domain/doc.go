// Package domain models maritime piracy incidents and the oceanographic wave
// data they are joined against.
//
// # Data Sources
//
// Incidents come from the IMO Global Integrated Shipping Information System
// (GISIS) piracy module, exported as a cleaned CSV with one row per reported
// event. The columns used here are "Incident Date", "Latitude", and
// "Longitude"; every other column is carried through untouched as [RawFields].
// Rows without coordinates are dropped during ingestion, before they reach the
// enrichment pipeline.
//
// Wave data comes from the Copernicus Marine Service product
// GLOBAL_ANALYSISFORECAST_WAV_001_027, dataset
// "cmems_mod_glo_wav_anfc_0.083deg_PT3H-i": a 1/12 degree grid sampled every
// three hours. The fields used are:
//
//	VHM0  spectral significant wave height (m)
//	VMDR  mean wave direction, coming from (degrees)
//	VCMX  maximum crest trough wave height (m)
//
// Grid coordinates are ascending and monotonic but not necessarily evenly
// spaced. Land cells carry NaN.
//
// # Spatio-temporal Join
//
// Each incident is matched by a window around its position and time:
//
//	lat  in [lat - δ, lat + δ]
//	lon  in [lon - δ, lon + δ]
//	time in [t - τ, t + τ]
//
// with δ = 0.05 degrees and τ = 30 minutes by default ([DefaultWindowConfig]).
// All six bounds are inclusive. Incidents dated before the start of the
// dataset's validity interval are skipped without touching the dataset; later
// incidents fall through to the query and come back empty.
//
// When several grid cells fall in the window, the VHM0 of the first cell in the
// dataset's native order (time, then latitude, then longitude, all ascending)
// wins. This is not a nearest-neighbour match. If that first value is NaN the
// incident is left without a wave height.
//
// # Distances
//
// Great-circle distances use the haversine formula and are reported in
// nautical miles (one minute of arc), see [GeoPoint.DistanceTo].
package domain
