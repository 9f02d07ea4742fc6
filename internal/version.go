package internal

// Version is recorded in run fingerprints. Release builds set it with
// -ldflags "-X wdiviz/internal.Version=...".
var Version = "v0.1.0"
