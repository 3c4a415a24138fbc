package common

// This package contains shared utilities and types used across the catalog packages.
// It provides path manipulation relative to a catalog root, the shared error values
// and the catalog metrics counters.
