package rowbar

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBar(t *testing.T) {
	buf := &bytes.Buffer{}
	bar := New(buf, "Generating rows", 3)
	for i := 1; i <= 3; i++ {
		bar.Report(i, 3)
	}
	bar.Finish()

	assert.Contains(t, buf.String(), "Generating rows")
}
