package sdk

import "strings"

// Inquiry field names as they appear on the wire and in FieldError.
const (
	FieldFullName        = "fullName"
	FieldEmailAddress    = "emailAddress"
	FieldPhoneNumber     = "phoneNumber"
	FieldCompanyName     = "companyName"
	FieldWebsiteType     = "websiteType"
	FieldFeatures        = "features"
	FieldBudget          = "budget"
	FieldDeadline        = "deadline"
	FieldAdditionalNotes = "additionalNotes"
	FieldName            = "name"
)

// RequiredInquiryFields lists the inquiry fields that must be non-empty, in
// form order. additionalNotes is optional.
var RequiredInquiryFields = []string{
	FieldFullName,
	FieldEmailAddress,
	FieldPhoneNumber,
	FieldCompanyName,
	FieldWebsiteType,
	FieldFeatures,
	FieldBudget,
	FieldDeadline,
}

// InquiryFieldValue returns the value of the named inquiry field.
func InquiryFieldValue(in Inquiry, field string) string {
	switch field {
	case FieldFullName:
		return in.FullName
	case FieldEmailAddress:
		return in.EmailAddress
	case FieldPhoneNumber:
		return in.PhoneNumber
	case FieldCompanyName:
		return in.CompanyName
	case FieldWebsiteType:
		return in.WebsiteType
	case FieldFeatures:
		return in.Features
	case FieldBudget:
		return in.Budget
	case FieldDeadline:
		return in.Deadline
	case FieldAdditionalNotes:
		return in.AdditionalNotes
	}
	return ""
}

// ValidateInquiry checks that every required field is non-blank. Only
// presence is checked; formats are the backend's concern.
func ValidateInquiry(in Inquiry) error {
	fe := &FieldError{Fields: map[string]string{}}
	for _, field := range RequiredInquiryFields {
		if strings.TrimSpace(InquiryFieldValue(in, field)) == "" {
			fe.Fields[field] = "required"
		}
	}
	if len(fe.Fields) > 0 {
		return fe
	}
	return nil
}

// ValidateProfileName rejects blank profile names.
func ValidateProfileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &FieldError{Fields: map[string]string{FieldName: "required"}}
	}
	return nil
}
