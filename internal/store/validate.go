package store

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

const (
	MinTakeaways = 3
	MaxTakeaways = 7
	MinTags      = 1
	MaxTags      = 3
)

// ValidatePersonName rejects empty or padded names.
func ValidatePersonName(name string) error {
	if strings.TrimSpace(name) == "" {
		return goerr.Wrap(ErrValidation, "person name is required")
	}
	if strings.TrimSpace(name) != name {
		return goerr.Wrap(ErrValidation, "person name must not have leading or trailing spaces", goerr.V("name", name))
	}
	if strings.Contains(name, "/") {
		return goerr.Wrap(ErrValidation, "person name must not contain '/'", goerr.V("name", name))
	}
	return nil
}

func (f PersonFields) Validate() error {
	if !f.Type.IsValid() {
		return goerr.Wrap(ErrValidation, "unknown person type", goerr.V("type", f.Type))
	}
	return nil
}

// Validate checks the shape rules of an interaction before any write.
func (in InteractionInput) Validate() error {
	if err := ValidatePersonName(in.PersonName); err != nil {
		return err
	}
	if in.Date.IsZero() {
		return goerr.Wrap(ErrValidation, "interaction date is required")
	}
	if n := len(in.Takeaways); n < MinTakeaways || n > MaxTakeaways {
		return goerr.Wrap(ErrValidation, "interaction must have between 3 and 7 takeaways", goerr.V("count", n))
	}
	for i, t := range in.Takeaways {
		if strings.TrimSpace(t) == "" {
			return goerr.Wrap(ErrValidation, "takeaway must not be empty", goerr.V("index", i))
		}
	}
	if n := len(in.Tags); n < MinTags || n > MaxTags {
		return goerr.Wrap(ErrValidation, "interaction must have between 1 and 3 tags", goerr.V("count", n))
	}
	seen := make(map[Tag]struct{}, len(in.Tags))
	for _, tag := range in.Tags {
		if !tag.IsValid() {
			return goerr.Wrap(ErrValidation, "unknown tag", goerr.V("tag", tag))
		}
		if _, dup := seen[tag]; dup {
			return goerr.Wrap(ErrValidation, "duplicate tag", goerr.V("tag", tag))
		}
		seen[tag] = struct{}{}
	}
	for i, u := range in.Transcript.Utterances {
		if u.End < u.Start {
			return goerr.Wrap(ErrValidation, "utterance ends before it starts", goerr.V("index", i))
		}
	}
	if len(in.Followups) > 0 {
		return ValidateFollowupItems(in.Followups)
	}
	return nil
}

// ValidateConnection rejects self-connections and empty names.
func ValidateConnection(a, b string) error {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return goerr.Wrap(ErrValidation, "both person names are required")
	}
	if a == b {
		return goerr.Wrap(ErrValidation, "a person cannot be connected to themselves", goerr.V("name", a))
	}
	return nil
}

func ValidateFollowupItems(items []string) error {
	if len(items) == 0 {
		return goerr.Wrap(ErrValidation, "at least one followup item is required")
	}
	for i, item := range items {
		if strings.TrimSpace(item) == "" {
			return goerr.Wrap(ErrValidation, "followup item must not be empty", goerr.V("index", i))
		}
	}
	return nil
}
