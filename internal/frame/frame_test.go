package frame

import (
	"bytes"
	"image"
	"image/color"
	"testing"
	"time"
)

func TestFromImageLayouts(t *testing.T) {
	now := time.Now()

	rgba := image.NewRGBA(image.Rect(0, 0, 3, 2))
	rgba.Set(1, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	f := FromImage(rgba, now)
	if f.Layout != RGBA || f.Width != 3 || f.Height != 2 || len(f.Pix) != 3*2*4 {
		t.Fatalf("RGBA frame = %dx%d %v len %d", f.Width, f.Height, f.Layout, len(f.Pix))
	}
	if got := f.Pix[(1*3+1)*4 : (1*3+1)*4+4]; !bytes.Equal(got, []byte{10, 20, 30, 255}) {
		t.Errorf("pixel (1,1) = %v", got)
	}

	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	gray.SetGray(2, 3, color.Gray{Y: 99})
	g := FromImage(gray, now)
	if g.Layout != Gray || len(g.Pix) != 16 || g.Pix[3*4+2] != 99 {
		t.Errorf("gray frame = %v len %d", g.Layout, len(g.Pix))
	}
}

func TestFromImageSubImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	src.Set(5, 5, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	sub := src.SubImage(image.Rect(5, 5, 7, 7))

	f := FromImage(sub, time.Now())
	if f.Width != 2 || f.Height != 2 {
		t.Fatalf("size = %dx%d", f.Width, f.Height)
	}
	if !bytes.Equal(f.Pix[:4], []byte{1, 2, 3, 255}) {
		t.Errorf("origin pixel = %v", f.Pix[:4])
	}
}

func TestFromImageGeneric(t *testing.T) {
	pal := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.White})
	pal.SetColorIndex(1, 0, 1)
	f := FromImage(pal, time.Now())
	if f.Layout != RGBA {
		t.Fatalf("layout = %v, want RGBA", f.Layout)
	}
	if !bytes.Equal(f.Pix[4:8], []byte{255, 255, 255, 255}) {
		t.Errorf("white pixel = %v", f.Pix[4:8])
	}
}

func TestConvert(t *testing.T) {
	src := Solid(2, 2, RGBA, color.NRGBA{R: 200, G: 100, B: 50, A: 128})

	rgb := src.Convert(RGB)
	if len(rgb.Pix) != 12 || !bytes.Equal(rgb.Pix[:3], []byte{200, 100, 50}) {
		t.Errorf("RGB = %v", rgb.Pix[:3])
	}

	back := rgb.Convert(RGBA)
	if !bytes.Equal(back.Pix[:4], []byte{200, 100, 50, 255}) {
		t.Errorf("RGBA from RGB = %v", back.Pix[:4])
	}

	gray := src.Convert(Gray)
	// (299*200 + 587*100 + 114*50 + 500) / 1000 = 124
	if gray.Pix[0] != 124 {
		t.Errorf("luma = %d, want 124", gray.Pix[0])
	}

	if same := src.Convert(RGBA); &same.Pix[0] != &src.Pix[0] {
		t.Error("same-layout Convert should not copy")
	}
}

func TestResizeNearest(t *testing.T) {
	src := Solid(4, 4, RGB, color.NRGBA{R: 7, G: 8, B: 9, A: 255})
	dst := src.Resize(8, 2)
	if dst.Width != 8 || dst.Height != 2 || dst.Layout != RGB {
		t.Fatalf("resized = %dx%d %v", dst.Width, dst.Height, dst.Layout)
	}
	for i := 0; i < dst.Pixels(); i++ {
		if !bytes.Equal(dst.Pix[i*3:i*3+3], []byte{7, 8, 9}) {
			t.Fatalf("pixel %d = %v", i, dst.Pix[i*3:i*3+3])
		}
	}
}

func TestResizeEmpty(t *testing.T) {
	empty := Frame{Layout: RGBA}
	out := empty.Resize(3, 3)
	if out.Pixels() != 9 || len(out.Pix) != 36 {
		t.Errorf("empty resize = %d pixels, %d bytes", out.Pixels(), len(out.Pix))
	}
	if z := Solid(2, 2, Gray, color.NRGBA{}).Resize(0, 5); !z.Empty() {
		t.Error("zero target should be empty")
	}
}

func TestLayoutChannels(t *testing.T) {
	tests := []struct {
		l    Layout
		ch   int
		name string
	}{
		{Gray, 1, "L"},
		{RGB, 3, "RGB"},
		{RGBA, 4, "RGBA"},
		{Layout(0), 0, "unknown"},
	}
	for _, tt := range tests {
		if tt.l.Channels() != tt.ch || tt.l.String() != tt.name {
			t.Errorf("%v: channels %d name %q", tt.l, tt.l.Channels(), tt.l.String())
		}
	}
}
