package shellcode

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"github.com/mazznoer/csscolorparser"
	"github.com/nfnt/resize"
)

const (
	DefaultBytemapWidth = 64
	DefaultBytemapScale = 4
)

type BytemapConfig struct {
	Width int    `default:"64" help:"Bytes per row of pixels"`
	Scale int    `default:"4" help:"Size of each byte in pixels"`
	Low   string `default:"#000000" help:"Color for byte value 0x00"`
	High  string `default:"#ffffff" help:"Color for byte value 0xFF"`
}

func parseColor(value string) (color.NRGBA, error) {
	c, err := csscolorparser.Parse(value)
	if err != nil {
		return color.NRGBA{}, err
	}
	return color.NRGBAModel.Convert(c).(color.NRGBA), nil
}

func lerp8(a uint8, b uint8, t uint8) uint8 {
	return uint8((int(a)*(255-int(t)) + int(b)*int(t)) / 255)
}

// Draw the data as an image, one pixel per byte going left to right then top
// to bottom. Each pixel is colored somewhere between low and high by value.
// Any unused pixels on the last row are transparent
func RenderBytemap(data []byte, config *BytemapConfig) (image.Image, error) {
	if config.Width < 1 {
		return nil, fmt.Errorf("bytemap width must be at least 1 (got %d)", config.Width)
	}
	if config.Scale < 1 {
		return nil, fmt.Errorf("bytemap scale must be at least 1 (got %d)", config.Scale)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("nothing to draw")
	}
	low, err := parseColor(config.Low)
	if err != nil {
		return nil, fmt.Errorf("bad low color: %s", err)
	}
	high, err := parseColor(config.High)
	if err != nil {
		return nil, fmt.Errorf("bad high color: %s", err)
	}
	width := min(config.Width, len(data))
	height := (len(data) + width - 1) / width
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, b := range data {
		img.SetNRGBA(i%width, i/width, color.NRGBA{
			R: lerp8(low.R, high.R, b),
			G: lerp8(low.G, high.G, b),
			B: lerp8(low.B, high.B, b),
			A: lerp8(low.A, high.A, b),
		})
	}
	if config.Scale == 1 {
		return img, nil
	}
	return resize.Resize(uint(width*config.Scale), uint(height*config.Scale), img, resize.NearestNeighbor), nil
}

// Render and write the bytemap as png
func WriteBytemapPng(w io.Writer, data []byte, config *BytemapConfig) error {
	img, err := RenderBytemap(data, config)
	if err != nil {
		return err
	}
	return imaging.Encode(w, img, imaging.PNG)
}
