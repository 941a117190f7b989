package enums

import "fmt"

// RequestFor names the academic document a request asks the registrar for.
type RequestFor string

const (
	RequestForSF10           RequestFor = "SF10"
	RequestForEnrollmentCert RequestFor = "ENROLLMENT_CERT"
	RequestForDiploma        RequestFor = "DIPLOMA"
	RequestForCAV            RequestFor = "CAV"
	RequestForEngInst        RequestFor = "ENG. INST."
	RequestForCertOfGrad     RequestFor = "CERT OF GRAD"
	RequestForOthers         RequestFor = "OTHERS"
)

var validRequestFors = []RequestFor{
	RequestForSF10,
	RequestForEnrollmentCert,
	RequestForDiploma,
	RequestForCAV,
	RequestForEngInst,
	RequestForCertOfGrad,
	RequestForOthers,
}

// String returns the literal string for the document kind.
func (r RequestFor) String() string {
	return string(r)
}

// IsValid reports whether the document kind is known.
func (r RequestFor) IsValid() bool {
	for _, candidate := range validRequestFors {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRequestFor converts raw input into a RequestFor.
func ParseRequestFor(value string) (RequestFor, error) {
	for _, candidate := range validRequestFors {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid request_for %q", value)
}

// RequestFors returns every known document kind in declaration order.
func RequestFors() []RequestFor {
	out := make([]RequestFor, len(validRequestFors))
	copy(out, validRequestFors)
	return out
}
