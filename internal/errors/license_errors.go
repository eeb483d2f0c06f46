package errors

import (
	stderrors "errors"
	"net/http"
	"strings"

	"licensegate/internal/license"
)

type licenseProblem struct {
	status int
	title  string
	detail string
}

var licenseProblems = map[license.Kind]licenseProblem{
	license.KindMalformedToken: {
		http.StatusBadRequest, "Malformed License",
		"The license must consist of exactly two dot-separated parts.",
	},
	license.KindDecodeError: {
		http.StatusBadRequest, "Undecodable License",
		"The license contains data that is not valid base64url.",
	},
	license.KindInvalidSignature: {
		http.StatusUnauthorized, "Invalid License Signature",
		"The license was not issued by a trusted authority or has been altered.",
	},
	license.KindKeyError: {
		http.StatusInternalServerError, "Verification Key Misconfigured",
		"The public key configured for license verification is invalid.",
	},
	license.KindParseError: {
		http.StatusBadRequest, "Invalid License Content",
		"The license is missing required information or contains invalid values.",
	},
	license.KindExpired: {
		http.StatusForbidden, "License Expired",
		"This license has expired.",
	},
	license.KindUnboundLicense: {
		http.StatusForbidden, "License Not Bound",
		"This license is not bound to a device and cannot be used.",
	},
	license.KindDeviceMismatch: {
		http.StatusForbidden, "Device Mismatch",
		"This license is bound to a different device.",
	},
	license.KindHardwareIdentityUnavailable: {
		http.StatusServiceUnavailable, "Hardware Identity Unavailable",
		"The identifier of this device could not be determined.",
	},
}

// LicenseProblemType returns the problem type URI for a verification kind,
// e.g. /errors/license/device-mismatch.
func LicenseProblemType(kind license.Kind) string {
	return "/errors/license/" + strings.ReplaceAll(kind.String(), "_", "-")
}

// StatusForKind returns the HTTP status used for a verification kind.
func StatusForKind(kind license.Kind) int {
	if p, ok := licenseProblems[kind]; ok {
		return p.status
	}
	return http.StatusInternalServerError
}

// MapVerificationError converts a verification failure into problem details.
// It returns nil when err does not carry a *license.Error.
func MapVerificationError(err error, instance string) *ProblemDetails {
	var le *license.Error
	if !stderrors.As(err, &le) {
		return nil
	}

	p, ok := licenseProblems[le.Kind]
	if !ok {
		p = licenseProblem{title: "License Verification Failed", detail: "The license could not be verified."}
	}

	problem := NewProblemDetails(StatusForKind(le.Kind), LicenseProblemType(le.Kind), p.title, p.detail, instance).
		WithExtension("error_code", le.Kind.Code()).
		WithExtension("kind", le.Kind.String())

	switch le.Kind {
	case license.KindDecodeError:
		if le.Segment != "" {
			problem.WithExtension("segment", le.Segment)
		}
	case license.KindParseError:
		if le.Field != "" {
			problem.WithExtension("field", le.Field)
		}
	case license.KindDeviceMismatch:
		problem.WithExtension("bound_hwid", le.Bound).
			WithExtension("local_hwid", le.Local)
	}

	return problem
}
