// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// version.go — build metadata injected via -ldflags and the wire-format
// revision this decoder understands.

package gridcodec

// Build-time variables, set with
//
//	-ldflags "-X 'github.com/AndrewDonelson/gridcodec.BuildDate=2026.02.28-1750' -X 'github.com/AndrewDonelson/gridcodec.BuildEnv=prod'"
//
// Defaults describe an unversioned local build.
var (
	BuildDate = "0000.00.00-0000" // YYYY.MM.DD-HHMM
	BuildEnv  = "dev"             // dev | qa | prod
)

// WireRevision identifies the tag vocabulary and footer layout decoded here.
const WireRevision = 2

// Version returns "YYYY.MM.DD-HHMM-env", e.g. "2026.02.28-1750-dev".
func Version() string {
	return BuildDate + "-" + BuildEnv
}
