package web

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDate(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	tests := []struct {
		raw      string
		date     string
		dateTime string
	}{
		{"2024-01-01", "01/01/2024", "01/01/2024 01:00:00"},
		{"2024-07-14T08:30:00Z", "14/07/2024", "14/07/2024 10:30:00"},
		{"2024-07-14T08:30:00.123+02:00", "14/07/2024", "14/07/2024 08:30:00"},
		{"2024-12-31T23:30:00", "31/12/2024", "31/12/2024 23:30:00"},
		{"", "–", "–"},
		{"hier", "hier", "hier"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.date, FormatDate(tt.raw, paris))
			assert.Equal(t, tt.dateTime, FormatDateTime(tt.raw, paris))
		})
	}
}

func TestSiteActionURL(t *testing.T) {
	assert.Equal(t, "/sites/acme/delete", SiteActionURL("acme", "delete", ""))
	assert.Equal(t, "/sites/acme/rename?q=a+b", SiteActionURL("acme", "rename", "a b"))
	assert.Equal(t, "/sites/a%2Fb/delete", SiteActionURL("a/b", "delete", ""))
}

func TestListURL(t *testing.T) {
	assert.Equal(t, "/sites", ListURL(""))
	assert.Equal(t, "/sites?q=acm%26co", ListURL("acm&co"))
}
