package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBackendsMarksConfigured(t *testing.T) {
	var buf bytes.Buffer
	printBackends(&buf, "Session store backends:", []string{"redis", "memory", "nats"}, "nats")

	assert.Equal(t, "Session store backends:\n"+
		"   - memory\n"+
		"   - nats (configured)\n"+
		"   - redis\n", buf.String())
}

func TestPrintBackendsWithoutConfigured(t *testing.T) {
	var buf bytes.Buffer
	printBackends(&buf, "Job queue backends:", []string{"memory"}, "")

	assert.Equal(t, "Job queue backends:\n   - memory\n", buf.String())
}
