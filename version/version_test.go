package version_test

import (
	"testing"

	"github.com/trancebox/trancebox/version"
)

func TestHash(t *testing.T) {
	cases := []struct {
		build version.Build
		want  string
	}{
		{version.Build{}, ""},
		{version.Build{Revision: "0123456789abcdef"}, "0123456"},
		{version.Build{Revision: "0123456789abcdef", Modified: true}, "0123456-dirty"},
	}
	for _, c := range cases {
		if got := c.build.Hash(); got != c.want {
			t.Errorf("%+v: got %q, want %q", c.build, got, c.want)
		}
	}
	if version.Long() == "" {
		t.Error("Long returned an empty string")
	}
}
