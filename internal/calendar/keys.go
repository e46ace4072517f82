package calendar

import "riverside/internal/model"

// Key is a navigation key understood by the calendar grid.
type Key int

const (
	KeyUnknown Key = iota
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyEnter
	KeySpace
)

var keyNames = map[Key]string{
	KeyUnknown:  "Unknown",
	KeyLeft:     "ArrowLeft",
	KeyRight:    "ArrowRight",
	KeyUp:       "ArrowUp",
	KeyDown:     "ArrowDown",
	KeyHome:     "Home",
	KeyEnd:      "End",
	KeyPageUp:   "PageUp",
	KeyPageDown: "PageDown",
	KeyEnter:    "Enter",
	KeySpace:    " ",
}

func (k Key) String() string {
	if s, ok := keyNames[k]; ok {
		return s
	}
	return "Unknown"
}

// ParseKey maps a DOM KeyboardEvent.key value (plus a few legacy aliases)
// to a Key.
func ParseKey(name string) Key {
	switch name {
	case "ArrowLeft", "Left":
		return KeyLeft
	case "ArrowRight", "Right":
		return KeyRight
	case "ArrowUp", "Up":
		return KeyUp
	case "ArrowDown", "Down":
		return KeyDown
	case "Home":
		return KeyHome
	case "End":
		return KeyEnd
	case "PageUp":
		return KeyPageUp
	case "PageDown":
		return KeyPageDown
	case "Enter":
		return KeyEnter
	case " ", "Space", "Spacebar":
		return KeySpace
	default:
		return KeyUnknown
	}
}

// KeyEvent is a key press on the focused day. Shift turns PageUp/PageDown
// into year steps.
type KeyEvent struct {
	Key   Key
	Shift bool
}

// Navigate returns the date a movement key leads to from focused. ok is
// false for keys that do not move focus (Enter, Space, unknown keys).
func Navigate(focused model.Date, ev KeyEvent) (target model.Date, ok bool) {
	switch ev.Key {
	case KeyLeft:
		return focused.AddDays(-1), true
	case KeyRight:
		return focused.AddDays(1), true
	case KeyUp:
		return focused.AddDays(-7), true
	case KeyDown:
		return focused.AddDays(7), true
	case KeyHome:
		return focused.FirstOfMonth(), true
	case KeyEnd:
		return focused.LastOfMonth(), true
	case KeyPageUp:
		return focused.AddMonths(-monthStep(ev.Shift)), true
	case KeyPageDown:
		return focused.AddMonths(monthStep(ev.Shift)), true
	default:
		return focused, false
	}
}

func monthStep(shift bool) int {
	if shift {
		return 12
	}
	return 1
}
