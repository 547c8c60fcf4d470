//go:build !windows

package filewatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		in        string
		dir, base string
	}{
		{"/tmp/d/file.txt", "/tmp/d", "file.txt"},
		{"/file.txt", "/", "file.txt"},
		{"file.txt", "", "file.txt"},
		{"a/b/c", "a/b", "c"},
	}
	for _, c := range cases {
		dir, base := split(c.in)
		assert.Equal(t, c.dir, dir, c.in)
		assert.Equal(t, c.base, base, c.in)
	}
}
