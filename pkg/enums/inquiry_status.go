package enums

import "fmt"

// InquiryStatus is the workflow state of a visitor inquiry.
type InquiryStatus string

const (
	InquiryStatusNew       InquiryStatus = "nueva"
	InquiryStatusContacted InquiryStatus = "contactada"
	InquiryStatusClosed    InquiryStatus = "cerrada"
)

var validInquiryStatuses = []InquiryStatus{
	InquiryStatusNew,
	InquiryStatusContacted,
	InquiryStatusClosed,
}

// String implements fmt.Stringer.
func (s InquiryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known InquiryStatus.
func (s InquiryStatus) IsValid() bool {
	for _, candidate := range validInquiryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInquiryStatus converts raw input into an InquiryStatus.
func ParseInquiryStatus(value string) (InquiryStatus, error) {
	for _, candidate := range validInquiryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inquiry status %q", value)
}
