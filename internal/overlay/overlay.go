package overlay

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	_ "golang.org/x/image/webp"
)

const (
	// WidthFactor is the design width at Size 100, as a fraction of the photo width.
	WidthFactor = 0.3
	Opacity     = 0.8

	MinSize = 10
	MaxSize = 100

	// MaxPixels bounds the area of any image Decode will allocate.
	MaxPixels = 40_000_000
)

var ErrTooLarge = errors.New("image too large")

// Placement positions the design on the photo. X, Y and Size are percentages,
// Rotation is clockwise degrees.
type Placement struct {
	X        float64
	Y        float64
	Size     float64
	Rotation float64
}

func DefaultPlacement() Placement {
	return Placement{X: 50, Y: 50, Size: 50}
}

func (p Placement) Normalize() Placement {
	p.X = clamp(p.X, 0, 100)
	p.Y = clamp(p.Y, 0, 100)
	p.Size = clamp(p.Size, MinSize, MaxSize)
	p.Rotation = math.Mod(p.Rotation, 360)
	if p.Rotation < 0 {
		p.Rotation += 360
	}
	return p
}

// Geometry is the design's rectangle on the photo before rotation.
type Geometry struct {
	Width   float64
	Height  float64
	CenterX float64
	CenterY float64
}

func Layout(canvas image.Rectangle, designSize image.Point, p Placement) Geometry {
	p = p.Normalize()

	w := p.Size / 100 * float64(canvas.Dx()) * WidthFactor
	h := 0.0
	if designSize.X > 0 {
		h = float64(designSize.Y) / float64(designSize.X) * w
	}

	return Geometry{
		Width:   w,
		Height:  h,
		CenterX: float64(canvas.Min.X) + p.X/100*float64(canvas.Dx()),
		CenterY: float64(canvas.Min.Y) + p.Y/100*float64(canvas.Dy()),
	}
}

// Composite draws design over photo at 80% opacity and returns a new image.
// The photo is not modified.
func Composite(photo, design image.Image, p Placement) (*image.RGBA, error) {
	pb := photo.Bounds()
	db := design.Bounds()
	if pb.Empty() {
		return nil, errors.New("photo is empty")
	}
	if db.Empty() {
		return nil, errors.New("design is empty")
	}

	p = p.Normalize()
	g := Layout(pb, db.Size(), p)

	out := image.NewRGBA(pb)
	draw.Copy(out, pb.Min, photo, pb, draw.Src, nil)

	s := g.Width / float64(db.Dx())
	rad := p.Rotation * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)

	// source pixel -> centered -> scaled -> rotated -> translated to the center
	halfW := float64(db.Dx()) / 2
	halfH := float64(db.Dy()) / 2
	ox := float64(db.Min.X) + halfW
	oy := float64(db.Min.Y) + halfH

	m := f64.Aff3{
		s * cos, -s * sin, g.CenterX - s*cos*ox + s*sin*oy,
		s * sin, s * cos, g.CenterY - s*sin*ox - s*cos*oy,
	}

	draw.BiLinear.Transform(out, m, design, db, draw.Over, &draw.Options{
		SrcMask: image.NewUniform(color.Alpha{A: uint8(math.Round(Opacity * 255))}),
	})

	return out, nil
}

// Decode reads the header first and refuses images above MaxPixels before
// any pixel buffer is allocated.
func Decode(r io.Reader) (image.Image, string, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, MaxPixels)
	}

	img, format, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// DecodeDataURL accepts either a data URI or bare base64.
func DecodeDataURL(value string) (image.Image, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("empty data url")
	}
	if strings.HasPrefix(value, "data:") {
		idx := strings.IndexByte(value, ',')
		if idx < 0 {
			return nil, errors.New("invalid data url")
		}
		value = value[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	img, _, err := Decode(bytes.NewReader(raw))
	return img, err
}

func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
