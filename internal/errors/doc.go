// Package errors renders failures as RFC 7807 problem documents.
//
// License verification failures map one to one onto problem types under
// /errors/license/, each with a fixed HTTP status. The stable error code,
// the kind, and any offending field, segment, or device identifiers are
// carried as extension members so that clients never parse the detail text.
package errors
