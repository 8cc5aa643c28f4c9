// Package state drives which screen is active and runs the screen's
// on-enter and on-exit hooks when it changes.
package state

import (
	"fmt"

	"github.com/cubefield/server/internal/component"
)

// GameState identifies a screen. Exactly one is active at a time.
type GameState uint8

const (
	Splash GameState = iota // default
	Menu
)

var names = [...]string{
	Splash: "Splash",
	Menu:   "Menu",
}

func (s GameState) String() string {
	if int(s) < len(names) {
		return names[s]
	}
	return fmt.Sprintf("GameState(%d)", s)
}

// Tag is the ScreenTag carried by every entity created for s.
func (s GameState) Tag() component.ScreenTag {
	return component.ScreenTag{Screen: s.String()}
}

// Parse maps a configured name to a state. The empty string is Splash.
func Parse(name string) (GameState, error) {
	if name == "" {
		return Splash, nil
	}
	for i, n := range names {
		if n == name {
			return GameState(i), nil
		}
	}
	return 0, fmt.Errorf("unknown game state %q", name)
}
