package geo

import _ "embed"

// Approximate centroids for the countries drawn as bubbles on the map.
//
//go:embed centroids.csv
var centroidsCSV []byte
