package hotkey

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	gohook "github.com/robotn/gohook"
	"github.com/rs/zerolog"
)

// Windows virtual-key rawcodes reported by gohook for the modifiers.
const (
	rawCtrlLeft   = 162
	rawCtrlRight  = 163
	rawAltLeft    = 164
	rawAltRight   = 165
	rawShiftLeft  = 160
	rawShiftRight = 161
	rawWinLeft    = 91
	rawWinRight   = 92
)

// Combo is a parsed modifier+key combination.
type Combo struct {
	Ctrl  bool
	Alt   bool
	Shift bool
	Win   bool
	Key   uint16
}

// ParseCombo parses strings like "Ctrl+Alt+Q". The final part must be a
// single letter or digit; modifiers may appear in any order.
func ParseCombo(s string) (Combo, error) {
	var c Combo
	parts := strings.Split(s, "+")
	for _, part := range parts {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "ctrl", "control":
			c.Ctrl = true
		case "alt":
			c.Alt = true
		case "shift":
			c.Shift = true
		case "win", "cmd", "super":
			c.Win = true
		default:
			key := strings.TrimSpace(part)
			if len(key) != 1 {
				return Combo{}, fmt.Errorf("hotkey %q: key part %q must be a single letter or digit", s, part)
			}
			r := unicode.ToUpper(rune(key[0]))
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return Combo{}, fmt.Errorf("hotkey %q: unsupported key %q", s, part)
			}
			if c.Key != 0 {
				return Combo{}, fmt.Errorf("hotkey %q: more than one non-modifier key", s)
			}
			// Letters and digits share their ASCII value with the
			// Windows virtual-key code.
			c.Key = uint16(r)
		}
	}
	if c.Key == 0 {
		return Combo{}, fmt.Errorf("hotkey %q: no non-modifier key", s)
	}
	return c, nil
}

// Listener watches global keyboard events for one combination and fires a
// trigger each time it is fully pressed.
type Listener struct {
	combo   Combo
	trigger func()
	log     zerolog.Logger
}

func New(combo string, log zerolog.Logger, trigger func()) (*Listener, error) {
	parsed, err := ParseCombo(combo)
	if err != nil {
		return nil, err
	}
	return &Listener{combo: parsed, trigger: trigger, log: log}, nil
}

// Listen blocks consuming hook events until ctx is cancelled. The trigger
// fires on the KeyDown that completes the combination; the key states then
// reset so holding the keys does not re-trigger.
func (l *Listener) Listen(ctx context.Context) {
	evChan := gohook.Start()
	if evChan == nil {
		l.log.Error().Msg("keyboard hook failed to start")
		return
	}
	defer gohook.End()

	var state comboState
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-evChan:
			if !ok {
				l.log.Warn().Msg("keyboard hook channel closed")
				return
			}
			if ev.Kind != gohook.KeyDown && ev.Kind != gohook.KeyUp {
				continue
			}
			state.apply(ev.Kind == gohook.KeyDown, ev.Rawcode)
			if ev.Kind == gohook.KeyDown && state.matches(l.combo) {
				l.log.Debug().Msg("hotkey combination detected")
				state = comboState{}
				l.trigger()
			}
		}
	}
}

type comboState struct {
	ctrl  bool
	alt   bool
	shift bool
	win   bool
	key   uint16
}

func (s *comboState) apply(down bool, rawcode uint16) {
	switch rawcode {
	case rawCtrlLeft, rawCtrlRight:
		s.ctrl = down
	case rawAltLeft, rawAltRight:
		s.alt = down
	case rawShiftLeft, rawShiftRight:
		s.shift = down
	case rawWinLeft, rawWinRight:
		s.win = down
	default:
		if down {
			s.key = rawcode
		} else if s.key == rawcode {
			s.key = 0
		}
	}
}

func (s *comboState) matches(c Combo) bool {
	return s.ctrl == c.Ctrl &&
		s.alt == c.Alt &&
		s.shift == c.Shift &&
		s.win == c.Win &&
		s.key == c.Key
}
