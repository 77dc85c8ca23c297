package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bnema/xnested/internal/nested"
)

func TestModifierString(t *testing.T) {
	assert.Equal(t, "", modifierString(0))
	assert.Equal(t, "Shift", modifierString(1))
	assert.Equal(t, "Shift|Control|Mod5", modifierString(1|1<<2|1<<7))
}

func testMapping() *nested.KeyboardMapping {
	m := &nested.KeyboardMapping{
		KeySyms: nested.KeySyms{
			MinKeyCode: 8,
			MaxKeyCode: 11,
			MapWidth:   2,
			Map: []uint32{
				0, 0,
				0xff1b, 0,
				0x0031, 0x0021,
				0, 0,
			},
		},
	}
	m.ModMap[10] = 1
	m.Controls.EnabledControls = 0x1f
	return m
}

func TestWriteKeymap(t *testing.T) {
	var buf bytes.Buffer
	writeKeymap(&buf, testMapping(), false)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "keycodes 8-11, 2 keysyms per keycode", lines[0])
	assert.Equal(t, "xkb controls 0x0000001f", lines[1])
	assert.Len(t, lines, 4, "keycodes without keysyms are skipped")
	assert.Equal(t, "  9  0xff1b", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], " 10  0x0031 0x0021"))
	assert.Contains(t, lines[3], "Shift")
}

func TestWriteKeymapAll(t *testing.T) {
	var buf bytes.Buffer
	writeKeymap(&buf, testMapping(), true)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 6)
}

func TestWriteKeymapShortTable(t *testing.T) {
	m := testMapping()
	m.KeySyms.Map = m.KeySyms.Map[:4]

	var buf bytes.Buffer
	assert.NotPanics(t, func() { writeKeymap(&buf, m, true) })
	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 4)
}
