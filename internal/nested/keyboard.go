package nested

import (
	"fmt"

	"github.com/bnema/xnested/internal/hostx"
)

// KeySyms is the core keysym table of the host keyboard.
type KeySyms struct {
	MinKeyCode uint8
	MaxKeyCode uint8
	// MapWidth is the number of keysyms per keycode.
	MapWidth int
	Map      []uint32
}

// Controls is the part of the host XKB controls the nested keyboard copies.
type Controls struct {
	EnabledControls uint32
	PerKeyRepeat    [32]byte
}

// KeyboardMapping is a snapshot of the host keyboard taken when the nested
// keyboard is initialised. It is not kept in sync.
type KeyboardMapping struct {
	KeySyms KeySyms
	// ModMap holds the modifier bits of each keycode.
	ModMap   [256]uint8
	Controls Controls
}

// KeyboardConn is what reading the host keyboard needs.
type KeyboardConn interface {
	Setup() hostx.Setup
	hostx.Keyboard
}

// KeyboardMappings reads the host keymap, modifier map and XKB controls.
// When only the XKB part fails the keysym and modifier tables are returned
// along with the error.
func (c *Client) KeyboardMappings() (*KeyboardMapping, error) {
	if c.closed {
		return nil, ErrClosed
	}
	return ReadKeyboard(c.conn)
}

// ReadKeyboard snapshots the keyboard of conn, see Client.KeyboardMappings.
func ReadKeyboard(conn KeyboardConn) (*KeyboardMapping, error) {
	setup := conn.Setup()
	count := int(setup.MaxKeycode) - int(setup.MinKeycode) + 1

	km, err := conn.GetKeyboardMapping(setup.MinKeycode, uint8(count))
	if err != nil {
		return nil, fmt.Errorf("failed to read host keyboard mapping: %w", err)
	}
	mm, err := conn.GetModifierMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to read host modifier mapping: %w", err)
	}

	m := &KeyboardMapping{
		KeySyms: KeySyms{
			MinKeyCode: setup.MinKeycode,
			MaxKeyCode: setup.MaxKeycode,
			MapWidth:   int(km.KeysymsPerKeycode),
			Map:        append([]uint32(nil), km.Keysyms...),
		},
	}

	per := int(mm.KeycodesPerModifier)
	for mod := 0; mod < 8; mod++ {
		for i := 0; i < per; i++ {
			idx := mod*per + i
			if idx >= len(mm.Keycodes) {
				break
			}
			if kc := mm.Keycodes[idx]; kc != 0 {
				m.ModMap[kc] |= 1 << mod
			}
		}
	}

	ctrls, err := conn.XkbGetControls()
	if err != nil {
		return m, fmt.Errorf("failed to read host XKB controls: %w", err)
	}
	m.Controls = Controls{EnabledControls: ctrls.EnabledControls, PerKeyRepeat: ctrls.PerKeyRepeat}
	return m, nil
}
