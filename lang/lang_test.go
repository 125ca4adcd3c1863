package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectShortSamplesDecline(t *testing.T) {
	d := NewLinguaDetector()
	assert.Equal(t, "", d.Detect(""))
	assert.Equal(t, "", d.Detect("   "))
	assert.Equal(t, "", d.Detect("ok 42"))
}

func TestDetectCommonLanguages(t *testing.T) {
	d := NewLinguaDetector()
	assert.Equal(t, "en", d.Detect("The quick brown fox jumps over the lazy dog."))
	assert.Equal(t, "ru", d.Detect("Съешь же ещё этих мягких французских булок."))
}
