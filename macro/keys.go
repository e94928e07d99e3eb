package macro

import "github.com/pkg/errors"

// Key identifies a keyboard key by its hardware scan code. Extended marks
// keys from the extended scan code set (right-hand modifiers, arrows,
// navigation cluster).
type Key struct {
	Name     string
	ScanCode int
	Extended bool
}

type keyID struct {
	scanCode int
	extended bool
}

var keyRegistry = map[keyID]Key{}

func registerKey(name string, scanCode int, extended bool) Key {
	k := Key{Name: name, ScanCode: scanCode, Extended: extended}
	keyRegistry[keyID{scanCode, extended}] = k
	return k
}

// KeyFromCode returns the key for the given scan code, or an error for
// codes not in the registry.
func KeyFromCode(scanCode int, extended bool) (Key, error) {
	k, ok := keyRegistry[keyID{scanCode, extended}]
	if !ok {
		return Key{}, errors.Errorf("unknown key, scan code %#x extended %t", scanCode, extended)
	}
	return k, nil
}

// The standard key set, scan code set 1.
var (
	KeyEsc        = registerKey("Esc", 0x01, false)
	Key1          = registerKey("1", 0x02, false)
	Key2          = registerKey("2", 0x03, false)
	Key3          = registerKey("3", 0x04, false)
	Key4          = registerKey("4", 0x05, false)
	Key5          = registerKey("5", 0x06, false)
	Key6          = registerKey("6", 0x07, false)
	Key7          = registerKey("7", 0x08, false)
	Key8          = registerKey("8", 0x09, false)
	Key9          = registerKey("9", 0x0A, false)
	Key0          = registerKey("0", 0x0B, false)
	KeyMinus      = registerKey("-", 0x0C, false)
	KeyEqual      = registerKey("=", 0x0D, false)
	KeyBackspace  = registerKey("Backspace", 0x0E, false)
	KeyTab        = registerKey("Tab", 0x0F, false)
	KeyQ          = registerKey("Q", 0x10, false)
	KeyW          = registerKey("W", 0x11, false)
	KeyE          = registerKey("E", 0x12, false)
	KeyR          = registerKey("R", 0x13, false)
	KeyT          = registerKey("T", 0x14, false)
	KeyY          = registerKey("Y", 0x15, false)
	KeyU          = registerKey("U", 0x16, false)
	KeyI          = registerKey("I", 0x17, false)
	KeyO          = registerKey("O", 0x18, false)
	KeyP          = registerKey("P", 0x19, false)
	KeyEnter      = registerKey("Enter", 0x1C, false)
	KeyLeftCtrl   = registerKey("LeftCtrl", 0x1D, false)
	KeyA          = registerKey("A", 0x1E, false)
	KeyS          = registerKey("S", 0x1F, false)
	KeyD          = registerKey("D", 0x20, false)
	KeyF          = registerKey("F", 0x21, false)
	KeyG          = registerKey("G", 0x22, false)
	KeyH          = registerKey("H", 0x23, false)
	KeyJ          = registerKey("J", 0x24, false)
	KeyK          = registerKey("K", 0x25, false)
	KeyL          = registerKey("L", 0x26, false)
	KeyLeftShift  = registerKey("LeftShift", 0x2A, false)
	KeyZ          = registerKey("Z", 0x2C, false)
	KeyX          = registerKey("X", 0x2D, false)
	KeyC          = registerKey("C", 0x2E, false)
	KeyV          = registerKey("V", 0x2F, false)
	KeyB          = registerKey("B", 0x30, false)
	KeyN          = registerKey("N", 0x31, false)
	KeyM          = registerKey("M", 0x32, false)
	KeyRightShift = registerKey("RightShift", 0x36, false)
	KeyLeftAlt    = registerKey("LeftAlt", 0x38, false)
	KeySpace      = registerKey("Space", 0x39, false)
	KeyCapsLock   = registerKey("CapsLock", 0x3A, false)
	KeyF1         = registerKey("F1", 0x3B, false)
	KeyF2         = registerKey("F2", 0x3C, false)
	KeyF3         = registerKey("F3", 0x3D, false)
	KeyF4         = registerKey("F4", 0x3E, false)
	KeyF5         = registerKey("F5", 0x3F, false)
	KeyF6         = registerKey("F6", 0x40, false)
	KeyF7         = registerKey("F7", 0x41, false)
	KeyF8         = registerKey("F8", 0x42, false)
	KeyF9         = registerKey("F9", 0x43, false)
	KeyF10        = registerKey("F10", 0x44, false)
	KeyF11        = registerKey("F11", 0x57, false)
	KeyF12        = registerKey("F12", 0x58, false)

	KeyRightCtrl = registerKey("RightCtrl", 0x1D, true)
	KeyRightAlt  = registerKey("RightAlt", 0x38, true)
	KeyHome      = registerKey("Home", 0x47, true)
	KeyUp        = registerKey("Up", 0x48, true)
	KeyPageUp    = registerKey("PageUp", 0x49, true)
	KeyLeft      = registerKey("Left", 0x4B, true)
	KeyRight     = registerKey("Right", 0x4D, true)
	KeyEnd       = registerKey("End", 0x4F, true)
	KeyDown      = registerKey("Down", 0x50, true)
	KeyPageDown  = registerKey("PageDown", 0x51, true)
	KeyInsert    = registerKey("Insert", 0x52, true)
	KeyDelete    = registerKey("Delete", 0x53, true)
	KeyLeftWin   = registerKey("LeftWin", 0x5B, true)
	KeyRightWin  = registerKey("RightWin", 0x5C, true)
)
