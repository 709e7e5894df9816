package domain

import (
	"bucketscan/pkg/serrors"
)

// Domain is a trimmed hostname and the unit of work. Case and trailing dots are
// kept as read from the input.
type Domain string

// String implements fmt.Stringer.
func (d Domain) String() string { return string(d) }

// OutcomeKind is the terminal state of a probe.
type OutcomeKind int

const (
	// OutcomeExcluded means the domain matched the exclusion list and was never probed.
	OutcomeExcluded OutcomeKind = iota + 1
	// OutcomeClassified means an HTTP response was obtained and classified.
	OutcomeClassified
	// OutcomeFailed means the probe ended with a recorded error.
	OutcomeFailed
)

// String returns a lower-case label suitable for logs and metric attributes.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeExcluded:
		return "excluded"
	case OutcomeClassified:
		return "classified"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the terminal outcome of probing one domain.
type Result struct {
	// Domain is the probed domain.
	Domain Domain
	// URL is the probed target, always "http://<domain>".
	URL string
	// Outcome tells which of the fields below are meaningful.
	Outcome OutcomeKind

	// Candidate is set for classified results whose response carried the
	// deleted-bucket signature.
	Candidate bool
	// StatusCode is the HTTP status of the last response, if any.
	StatusCode int
	// Bucket is the bucket name reported in the S3 error document, if present.
	Bucket string
	// CNAMEs are the delegation targets found while confirming a candidate.
	CNAMEs []string
	// ConfirmErr is set when CNAME confirmation failed. It never retracts a
	// candidate.
	ConfirmErr error

	// Kind is the failure kind of a failed result.
	Kind serrors.Kind
	// Err is the error that terminated a failed result.
	Err error

	// Attempts is the number of HTTP requests issued for this domain.
	Attempts int
}

// Finding is one line of the findings output.
type Finding struct {
	URL string
}

// Line formats the finding as written to the findings output.
func (f Finding) Line() string { return f.URL + "\n" }

// ErrorRecord is one line of the errors output.
type ErrorRecord struct {
	Kind   serrors.Kind
	Domain Domain
}

// Line formats the record as "<ErrorKind>: <domain>".
func (e ErrorRecord) Line() string {
	kind := serrors.ErrGeneric
	if e.Kind != nil {
		kind = e.Kind
	}

	return kind.Error() + ": " + string(e.Domain) + "\n"
}

// TargetURL builds the probe target for d.
func TargetURL(d Domain) string { return "http://" + string(d) }
