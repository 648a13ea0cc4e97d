package sdk

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-bexpr"
)

// FilterInquiries returns the entries matching a go-bexpr expression such as
// `websiteType == "Business" and budget != ""`. Selectors are the wire field
// names plus `id`. An empty expression returns entries unchanged.
func FilterInquiries(entries []InquiryEntry, expr string) ([]InquiryEntry, error) {
	if strings.TrimSpace(expr) == "" {
		return entries, nil
	}

	evaluator, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: filter expression: %w", ErrInvalidInput, err)
	}

	matched := make([]InquiryEntry, 0, len(entries))
	for _, entry := range entries {
		ok, err := evaluator.Evaluate(inquiryFields(entry))
		if err != nil {
			// Missing selectors evaluate as non-matching.
			continue
		}
		if ok {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

// FilterProfiles applies a go-bexpr expression over `owner` and `name`.
func FilterProfiles(entries []ProfileEntry, expr string) ([]ProfileEntry, error) {
	if strings.TrimSpace(expr) == "" {
		return entries, nil
	}

	evaluator, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: filter expression: %w", ErrInvalidInput, err)
	}

	matched := make([]ProfileEntry, 0, len(entries))
	for _, entry := range entries {
		ok, err := evaluator.Evaluate(map[string]any{
			"owner": string(entry.Owner),
			"name":  entry.Profile.Name,
		})
		if err == nil && ok {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

func inquiryFields(entry InquiryEntry) map[string]any {
	fields := map[string]any{
		"id":                 uint64(entry.ID),
		FieldAdditionalNotes: entry.Inquiry.AdditionalNotes,
	}
	for _, name := range RequiredInquiryFields {
		fields[name] = InquiryFieldValue(entry.Inquiry, name)
	}
	return fields
}
