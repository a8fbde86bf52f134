package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
)

// PreprocessConfig controls image clean-up before recognition.
type PreprocessConfig struct {
	// Contrast stretches gray levels around the page mean; 1 keeps them.
	Contrast float64
	// MinWidth upscales narrower images to this width.
	MinWidth int
}

// DefaultPreprocessConfig returns the settings tuned for time-card scans.
func DefaultPreprocessConfig() PreprocessConfig {
	return PreprocessConfig{Contrast: 3.0, MinWidth: 2000}
}

// Preprocess converts img to grayscale, upscales small images, boosts
// contrast and sharpens.
func Preprocess(img image.Image, cfg PreprocessConfig) *image.Gray {
	gray := toGray(img)
	if cfg.MinWidth > 0 && gray.Bounds().Dx() > 0 && gray.Bounds().Dx() < cfg.MinWidth {
		gray = upscale(gray, cfg.MinWidth)
	}
	if cfg.Contrast > 0 && cfg.Contrast != 1 {
		adjustContrast(gray, cfg.Contrast)
	}
	return sharpen(gray)
}

// EncodePNG encodes img for the OCR engine.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page image: %w", err)
	}
	return buf.Bytes(), nil
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

func upscale(src *image.Gray, width int) *image.Gray {
	b := src.Bounds()
	height := b.Dy() * width / b.Dx()
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// adjustContrast scales each level away from the mean level by factor.
func adjustContrast(img *image.Gray, factor float64) {
	if len(img.Pix) == 0 {
		return
	}
	var sum float64
	for _, p := range img.Pix {
		sum += float64(p)
	}
	mean := sum / float64(len(img.Pix))
	for i, p := range img.Pix {
		img.Pix[i] = clamp(mean + factor*(float64(p)-mean))
	}
}

// sharpenKernel is the 3x3 sharpen filter, normalised by 16.
var sharpenKernel = [9]float64{
	-2, -2, -2,
	-2, 32, -2,
	-2, -2, -2,
}

// sharpen convolves img with sharpenKernel. Border pixels are copied as is.
func sharpen(img *image.Gray) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	copy(out.Pix, img.Pix)
	w, h := b.Dx(), b.Dy()
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var acc float64
			k := 0
			for dy := -1; dy <= 1; dy++ {
				row := (y+dy)*img.Stride + x
				for dx := -1; dx <= 1; dx++ {
					acc += sharpenKernel[k] * float64(img.Pix[row+dx])
					k++
				}
			}
			out.Pix[y*out.Stride+x] = clamp(acc / 16)
		}
	}
	return out
}

func clamp(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v + 0.5)
}
