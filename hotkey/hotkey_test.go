package hotkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCombo(t *testing.T) {
	c, err := ParseCombo("Ctrl+Alt+Q")
	require.NoError(t, err)
	assert.Equal(t, Combo{Ctrl: true, Alt: true, Key: 'Q'}, c)

	c, err = ParseCombo("shift + win + 3")
	require.NoError(t, err)
	assert.Equal(t, Combo{Shift: true, Win: true, Key: '3'}, c)

	c, err = ParseCombo("ctrl+q")
	require.NoError(t, err)
	assert.Equal(t, Combo{Ctrl: true, Key: 'Q'}, c)
}

func TestParseComboErrors(t *testing.T) {
	for _, s := range []string{"", "Ctrl+Alt", "Ctrl+F13", "Ctrl+Q+W", "Ctrl+%"} {
		_, err := ParseCombo(s)
		assert.Error(t, err, "combo %q", s)
	}
}

func TestComboStateMatching(t *testing.T) {
	combo := Combo{Ctrl: true, Alt: true, Key: 'Q'}
	var s comboState

	s.apply(true, rawCtrlLeft)
	s.apply(true, rawAltRight)
	assert.False(t, s.matches(combo))

	s.apply(true, 'Q')
	assert.True(t, s.matches(combo))

	// Extra modifier held breaks the match.
	s.apply(true, rawShiftLeft)
	assert.False(t, s.matches(combo))
	s.apply(false, rawShiftLeft)
	assert.True(t, s.matches(combo))

	s.apply(false, 'Q')
	assert.False(t, s.matches(combo))
}
