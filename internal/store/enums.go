package store

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// PersonType classifies a tracked person.
type PersonType string

const (
	PersonTypeUnset      PersonType = ""
	PersonTypeCustomer   PersonType = "customer"
	PersonTypeInvestor   PersonType = "investor"
	PersonTypeCompetitor PersonType = "competitor"
)

// AllPersonTypes returns every assignable person type.
func AllPersonTypes() []PersonType {
	return []PersonType{
		PersonTypeCustomer,
		PersonTypeInvestor,
		PersonTypeCompetitor,
	}
}

// IsValid reports whether t is a known type. The unset type is valid.
func (t PersonType) IsValid() bool {
	switch t {
	case PersonTypeUnset,
		PersonTypeCustomer,
		PersonTypeInvestor,
		PersonTypeCompetitor:
		return true
	default:
		return false
	}
}

func (t PersonType) String() string {
	return string(t)
}

// ParsePersonType parses a type name case-insensitively. An empty string
// yields PersonTypeUnset.
func ParsePersonType(s string) (PersonType, error) {
	t := PersonType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", goerr.Wrap(ErrValidation, "unknown person type", goerr.V("type", s))
	}
	return t, nil
}

// Tag is a thematic label attached to an interaction.
type Tag string

const (
	TagPricing     Tag = "pricing"
	TagProduct     Tag = "product"
	TagGTM         Tag = "gtm"
	TagCompetitors Tag = "competitors"
	TagMarket      Tag = "market"
)

// AllTags returns the tag vocabulary in its canonical order.
func AllTags() []Tag {
	return []Tag{
		TagPricing,
		TagProduct,
		TagGTM,
		TagCompetitors,
		TagMarket,
	}
}

func (t Tag) IsValid() bool {
	switch t {
	case TagPricing,
		TagProduct,
		TagGTM,
		TagCompetitors,
		TagMarket:
		return true
	default:
		return false
	}
}

func (t Tag) String() string {
	return string(t)
}

// Description returns the human explanation shown by `rolodex tags`.
func (t Tag) Description() string {
	switch t {
	case TagPricing:
		return "Pricing models, willingness to pay, cost concerns"
	case TagProduct:
		return "Features, UX, functionality, bugs, requests"
	case TagGTM:
		return "Go-to-market strategy, sales, distribution, channels"
	case TagCompetitors:
		return "Competitive landscape, alternatives, switching"
	case TagMarket:
		return "Industry trends, market size, timing, macro factors"
	default:
		return ""
	}
}

// Rank is the position of t in AllTags, used for stable ordering.
func (t Tag) Rank() int {
	for i, tag := range AllTags() {
		if tag == t {
			return i
		}
	}
	return len(AllTags())
}

func ParseTag(s string) (Tag, error) {
	t := Tag(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", goerr.Wrap(ErrValidation, "unknown tag", goerr.V("tag", s))
	}
	return t, nil
}

// ParseTags parses every value and drops duplicates, keeping first-seen order.
func ParseTags(values []string) ([]Tag, error) {
	tags := make([]Tag, 0, len(values))
	seen := make(map[Tag]struct{}, len(values))
	for _, v := range values {
		tag, err := ParseTag(v)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags, nil
}

// FollowupStatus is the lifecycle state of a followup item.
type FollowupStatus string

const (
	FollowupStatusOpen     FollowupStatus = "open"
	FollowupStatusComplete FollowupStatus = "complete"
)

func (s FollowupStatus) IsValid() bool {
	switch s {
	case FollowupStatusOpen, FollowupStatusComplete:
		return true
	default:
		return false
	}
}

func (s FollowupStatus) String() string {
	return string(s)
}

func ParseFollowupStatus(s string) (FollowupStatus, error) {
	status := FollowupStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", goerr.Wrap(ErrValidation, "unknown followup status", goerr.V("status", s))
	}
	return status, nil
}
