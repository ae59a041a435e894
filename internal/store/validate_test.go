package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rolodex/internal/store"
)

func validInput() store.InteractionInput {
	return store.InteractionInput{
		PersonName: "Ann",
		Date:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Takeaways:  []string{"a", "b", "c"},
		Tags:       []store.Tag{store.TagPricing},
	}
}

func TestInteractionInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *store.InteractionInput)
		wantErr bool
	}{
		{name: "valid", mutate: func(in *store.InteractionInput) {}},
		{name: "seven takeaways", mutate: func(in *store.InteractionInput) {
			in.Takeaways = []string{"1", "2", "3", "4", "5", "6", "7"}
		}},
		{name: "eight takeaways", wantErr: true, mutate: func(in *store.InteractionInput) {
			in.Takeaways = []string{"1", "2", "3", "4", "5", "6", "7", "8"}
		}},
		{name: "blank takeaway", wantErr: true, mutate: func(in *store.InteractionInput) {
			in.Takeaways[1] = "  "
		}},
		{name: "four tags", wantErr: true, mutate: func(in *store.InteractionInput) {
			in.Tags = []store.Tag{store.TagPricing, store.TagProduct, store.TagGTM, store.TagMarket}
		}},
		{name: "duplicate tag", wantErr: true, mutate: func(in *store.InteractionInput) {
			in.Tags = []store.Tag{store.TagPricing, store.TagPricing}
		}},
		{name: "zero date", wantErr: true, mutate: func(in *store.InteractionInput) {
			in.Date = time.Time{}
		}},
		{name: "missing person", wantErr: true, mutate: func(in *store.InteractionInput) {
			in.PersonName = ""
		}},
		{name: "utterance ends early", wantErr: true, mutate: func(in *store.InteractionInput) {
			in.Transcript.Utterances = []store.Utterance{{Speaker: "A", Text: "x", Start: 5, End: 1}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			err := in.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, store.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePersonName(t *testing.T) {
	assert.NoError(t, store.ValidatePersonName("Jane Doe"))
	assert.ErrorIs(t, store.ValidatePersonName(""), store.ErrValidation)
	assert.ErrorIs(t, store.ValidatePersonName(" Jane"), store.ErrValidation)
	assert.ErrorIs(t, store.ValidatePersonName("a/b"), store.ErrValidation)
}

func TestValidateConnection(t *testing.T) {
	assert.NoError(t, store.ValidateConnection("Ann", "Bob"))
	assert.ErrorIs(t, store.ValidateConnection("Ann", "Ann"), store.ErrValidation)
	assert.ErrorIs(t, store.ValidateConnection("Ann", ""), store.ErrValidation)
}

func TestTranscriptFullText(t *testing.T) {
	tr := store.Transcript{Utterances: []store.Utterance{{Speaker: "A", Text: "hello"}, {Speaker: "B", Text: "world"}}}
	assert.Equal(t, "hello\nworld", tr.FullText())

	tr.Text = "full text"
	assert.Equal(t, "full text", tr.FullText())
}
