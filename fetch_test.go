package imgcache

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestETagFromHeader(t *testing.T) {
	testCases := []struct {
		value    string
		expected string
	}{
		{`"v1"`, "v1"},
		{`W/"v1"`, "v1"},
		{`"383761229c544a77af3df6dd1cc5c01d"`, "383761229c544a77af3df6dd1cc5c01d"},
		{`""`, ""},
		{`v1`, ""},
		{`"unterminated`, ""},
		{``, ""},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.expected, etagFromHeader(testCase.value), testCase.value)
	}
}

func TestResponseNoStore(t *testing.T) {
	testCases := []struct {
		cacheControl string
		expected     bool
	}{
		{"no-store", true},
		{"private, no-store", true},
		{"no-cache", false},
		{"max-age=3600", false},
		{"", false},
	}

	for _, testCase := range testCases {
		header := http.Header{}
		if testCase.cacheControl != "" {
			header.Set("Cache-Control", testCase.cacheControl)
		}
		assert.Equal(t, testCase.expected, responseNoStore(header), testCase.cacheControl)
	}
}
