package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCompany(t *testing.T) {
	assert.Equal(t, "Tata Motors", NormalizeCompany("  Tata   Motors "))
}

func TestCompanyKeywords(t *testing.T) {
	assert.Equal(t, []string{"tesla", "elon musk"}, CompanyKeywords(" Tesla "))
	assert.Equal(t, []string{"acme corp"}, CompanyKeywords("ACME Corp"))
	assert.Nil(t, CompanyKeywords("   "))
}

func TestMentionsAny(t *testing.T) {
	kw := CompanyKeywords("Tesla")
	assert.True(t, MentionsAny("Elon Musk unveils a robotaxi", kw))
	assert.True(t, MentionsAny("TESLA shares slide", kw))
	assert.False(t, MentionsAny("Ford expands EV line", kw))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Tesla", "tesla"},
		{"Tata Motors Ltd.", "tata-motors-ltd"},
		{"  AT&T  ", "at-t"},
		{"日本", "report"},
		{"", "report"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}
