package nested

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/xnested/internal/hostx"
)

func TestStride(t *testing.T) {
	tests := []struct {
		width int
		bpp   uint8
		pad   uint8
		want  int
	}{
		{64, 32, 32, 256},
		{3, 16, 32, 8},
		{4, 16, 32, 8},
		{5, 8, 32, 8},
		{33, 1, 32, 8},
		{7, 24, 8, 21},
		{7, 24, 0, 21},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stride(tt.width, tt.bpp, tt.pad), "width=%d bpp=%d pad=%d", tt.width, tt.bpp, tt.pad)
	}
}

func TestRecreateImageKeepsOneSegment(t *testing.T) {
	h := newHarness()
	c := h.create(t, testParams())

	for i := 0; i < 5; i++ {
		require.NoError(t, c.RecreateImage(24))
	}
	assert.True(t, c.UsingShm())
	assert.Equal(t, 1, h.alloc.Live())
	assert.Len(t, h.srv.Attached, 1)
	// the test attach, the first image and five recreations
	assert.Equal(t, 7, h.count("ShmAttach"))
	assert.Equal(t, 6, h.count("ShmDetach"))
}

func TestRecreateImageUnknownDepth(t *testing.T) {
	h := newHarness()
	c := h.create(t, testParams())

	assert.Error(t, c.RecreateImage(30))
	assert.Nil(t, c.FrameBuffer())
	assert.Zero(t, h.alloc.Live())
}

func TestUpdateScreen(t *testing.T) {
	for _, disableShm := range []bool{false, true} {
		name := "shm"
		if disableShm {
			name = "private"
		}
		t.Run(name, func(t *testing.T) {
			h := newHarness()
			p := testParams()
			p.DisableShm = disableShm
			c := h.create(t, p)
			fill(c)

			c.UpdateScreen(0, 0, 64, 48)
			got, err := h.srv.GetImage(uint32(c.Window()), 0, 0, 64, 48)
			require.NoError(t, err)
			assert.Equal(t, rect(c, 0, 0, 64, 48), got)

			if disableShm {
				assert.Equal(t, 1, h.count("PutImage"))
				assert.Zero(t, h.count("ShmPutImage"))
			} else {
				assert.Equal(t, 1, h.count("ShmPutImage"))
				assert.Zero(t, h.count("PutImage"))
			}
			assert.Equal(t, 1, h.srv.Syncs)
		})
	}
}

func TestUpdateScreenSubrect(t *testing.T) {
	h := newHarness()
	p := testParams()
	p.DisableShm = true
	c := h.create(t, p)
	fill(c)

	c.UpdateScreen(10, 5, 20, 9)
	win := h.srv.Windows[c.Window()]

	got, err := h.srv.GetImage(uint32(c.Window()), 10, 5, 10, 4)
	require.NoError(t, err)
	assert.Equal(t, rect(c, 10, 5, 20, 9), got)

	// pixels outside the rectangle are untouched
	outside, err := h.srv.GetImage(uint32(c.Window()), 0, 0, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 10*5*4), outside)
	assert.Len(t, win.Pixels, 64*48*4)
}

func TestUpdateScreenBandsLargeUpdates(t *testing.T) {
	h := newHarness()
	p := testParams()
	p.DisableShm = true
	c := h.create(t, p)
	fill(c)

	// 5 rows of 64 pixels per request
	h.srv.SetMaxRequestBytes(putImageHeader + 256*5)
	c.UpdateScreen(0, 0, 64, 48)

	assert.Equal(t, 10, h.count("PutImage"))
	assert.NoError(t, h.srv.Err())
	got, err := h.srv.GetImage(uint32(c.Window()), 0, 0, 64, 48)
	require.NoError(t, err)
	assert.Equal(t, rect(c, 0, 0, 64, 48), got)
}

func TestUpdateScreenClips(t *testing.T) {
	h := newHarness()
	p := testParams()
	p.DisableShm = true
	c := h.create(t, p)
	fill(c)

	c.UpdateScreen(-10, -10, 1000, 1000)
	require.NoError(t, h.srv.Err())
	got, err := h.srv.GetImage(uint32(c.Window()), 0, 0, 64, 48)
	require.NoError(t, err)
	assert.Equal(t, rect(c, 0, 0, 64, 48), got)
}

func TestUpdateScreenEmptyRect(t *testing.T) {
	h := newHarness()
	c := h.create(t, testParams())

	c.UpdateScreen(10, 10, 10, 20)
	c.UpdateScreen(30, 30, 20, 20)
	c.UpdateScreen(64, 0, 80, 48)
	assert.Zero(t, h.count("ShmPutImage"))
	assert.Zero(t, h.srv.Syncs)
}

func TestUpdateScreenAfterClose(t *testing.T) {
	h := newHarness()
	c := h.create(t, testParams())
	c.Close()

	n := len(h.srv.Requests)
	c.UpdateScreen(0, 0, 64, 48)
	assert.Len(t, h.srv.Requests, n)
}

func TestUpdateScreenShmUsesSegment(t *testing.T) {
	h := newHarness()
	c := h.create(t, testParams())
	fill(c)

	var seg hostx.Seg
	for s := range h.srv.Attached {
		seg = s
	}
	require.NotZero(t, seg)

	c.UpdateScreen(8, 8, 16, 16)
	got, err := h.srv.GetImage(uint32(c.Window()), 8, 8, 8, 8)
	require.NoError(t, err)
	assert.Equal(t, rect(c, 8, 8, 16, 16), got)
}
