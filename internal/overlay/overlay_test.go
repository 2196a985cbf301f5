package overlay

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func TestLayout(t *testing.T) {
	canvas := image.Rect(0, 0, 1000, 800)

	g := Layout(canvas, image.Pt(200, 100), DefaultPlacement())
	assert.InDelta(t, 150, g.Width, 1e-9)
	assert.InDelta(t, 75, g.Height, 1e-9)
	assert.InDelta(t, 500, g.CenterX, 1e-9)
	assert.InDelta(t, 400, g.CenterY, 1e-9)

	g = Layout(canvas, image.Pt(100, 300), Placement{X: 25, Y: 75, Size: 100})
	assert.InDelta(t, 300, g.Width, 1e-9)
	assert.InDelta(t, 900, g.Height, 1e-9)
	assert.InDelta(t, 250, g.CenterX, 1e-9)
	assert.InDelta(t, 600, g.CenterY, 1e-9)
}

func TestNormalize(t *testing.T) {
	p := Placement{X: -5, Y: 140, Size: 2, Rotation: -90}.Normalize()
	assert.Equal(t, Placement{X: 0, Y: 100, Size: MinSize, Rotation: 270}, p)

	p = Placement{X: 50, Y: 50, Size: 500, Rotation: 725}.Normalize()
	assert.Equal(t, float64(MaxSize), p.Size)
	assert.InDelta(t, 5, p.Rotation, 1e-9)
}

func TestComposite(t *testing.T) {
	photo := solid(100, 100, red)
	design := solid(10, 10, blue)

	out, err := Composite(photo, design, Placement{X: 50, Y: 50, Size: 100})
	require.NoError(t, err)
	require.Equal(t, photo.Bounds(), out.Bounds())

	center := out.RGBAAt(50, 50)
	assert.InDelta(t, 51, int(center.R), 3)
	assert.InDelta(t, 204, int(center.B), 3)
	assert.Equal(t, uint8(255), center.A)

	assert.Equal(t, red, out.RGBAAt(2, 2))
	assert.Equal(t, red, out.RGBAAt(50, 25))
	assert.Equal(t, red, photo.RGBAAt(50, 50), "photo must not be modified")
}

func TestCompositeRotation(t *testing.T) {
	photo := solid(100, 100, red)
	design := solid(10, 10, blue)

	straight, err := Composite(photo, design, Placement{X: 50, Y: 50, Size: 100})
	require.NoError(t, err)
	rotated, err := Composite(photo, design, Placement{X: 50, Y: 50, Size: 100, Rotation: 45})
	require.NoError(t, err)

	// (38,38) is inside the axis-aligned square but outside the diamond.
	assert.Greater(t, int(straight.RGBAAt(38, 38).B), 150)
	assert.Equal(t, red, rotated.RGBAAt(38, 38))

	// (50,31) is above the square but inside the diamond's top corner.
	assert.Equal(t, red, straight.RGBAAt(50, 31))
	assert.Greater(t, int(rotated.RGBAAt(50, 31).B), 150)
}

func TestCompositeEmpty(t *testing.T) {
	_, err := Composite(image.NewRGBA(image.Rectangle{}), solid(2, 2, blue), DefaultPlacement())
	assert.Error(t, err)
	_, err = Composite(solid(2, 2, red), image.NewRGBA(image.Rectangle{}), DefaultPlacement())
	assert.Error(t, err)
}

func TestDecodeDataURL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(4, 3, blue)))
	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())

	img, err := DecodeDataURL("data:image/png;base64," + encoded)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(4, 3), img.Bounds().Size())

	img, err = DecodeDataURL(encoded)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(4, 3), img.Bounds().Size())

	_, err = DecodeDataURL("")
	assert.Error(t, err)
	_, err = DecodeDataURL("data:image/png;base64")
	assert.Error(t, err)
	_, err = DecodeDataURL("data:image/png;base64,!!!")
	assert.Error(t, err)
}

func TestEncodePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, solid(3, 3, red)))

	img, format, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Pt(3, 3), img.Bounds().Size())
}

// hugePNG is a valid 1x1 PNG whose IHDR claims w x h.
func hugePNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	b := buf.Bytes()
	binary.BigEndian.PutUint32(b[16:], w)
	binary.BigEndian.PutUint32(b[20:], h)
	binary.BigEndian.PutUint32(b[29:], crc32.ChecksumIEEE(b[12:29]))
	return b
}

func TestDecodeRejectsOversizedHeader(t *testing.T) {
	data := hugePNG(t, 30000, 30000)
	require.Less(t, len(data), 1024)

	_, _, err := Decode(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrTooLarge)
	assert.Contains(t, err.Error(), "30000x30000")

	encoded := base64.StdEncoding.EncodeToString(data)
	_, err = DecodeDataURL("data:image/png;base64," + encoded)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDecodeAfterHeaderCheck(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(300, 200, red)))

	img, format, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 300, 200), img.Bounds())
	r, _, _, _ := img.At(150, 100).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}
