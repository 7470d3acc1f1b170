package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRepositoryRef_Validate(t *testing.T) {
	testCases := []struct {
		name        string
		ref         RepositoryRef
		expectError bool
	}{
		{name: "valid reference", ref: RepositoryRef{Owner: "acme", Name: "widgets"}},
		{name: "missing owner", ref: RepositoryRef{Name: "widgets"}, expectError: true},
		{name: "missing name", ref: RepositoryRef{Owner: "acme"}, expectError: true},
		{name: "empty reference", ref: RepositoryRef{}, expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ref.Validate()
			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRepositoryRef_String(t *testing.T) {
	ref := RepositoryRef{Owner: "acme", Name: "widgets"}
	assert.Equal(t, "acme/widgets", ref.String())
}

func TestWeekDateDerivation(t *testing.T) {
	// 2020-01-05 00:00:00 UTC, a Sunday week start.
	const week = int64(1578182400)

	want := time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want, WeeklyContribution{Week: week}.Date())
	assert.Equal(t, want, CodeFrequency{Week: week}.Date())
	assert.Equal(t, want, CommitActivity{Week: week}.Date())
}
