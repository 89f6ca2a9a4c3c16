package workflow

import "fmt"

// View is the screen a session is currently on.
type View uint8

const (
	ViewWelcome View = iota
	ViewScanner
	ViewCart
	ViewAdmin
)

var viewNames = [...]string{
	ViewWelcome: "welcome",
	ViewScanner: "scanner",
	ViewCart:    "cart",
	ViewAdmin:   "admin",
}

func (v View) String() string {
	if int(v) < len(viewNames) {
		return viewNames[v]
	}
	return fmt.Sprintf("view(%d)", uint8(v))
}

// MarshalText renders the view by name for JSON payloads.
func (v View) MarshalText() ([]byte, error) {
	if int(v) >= len(viewNames) {
		return nil, fmt.Errorf("unknown view %d", uint8(v))
	}
	return []byte(viewNames[v]), nil
}
