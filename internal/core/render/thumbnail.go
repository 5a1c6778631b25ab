// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package render produces watermarked grayscale thumbnails.
//
// Logic Flow:
//  1. The source bytes are decoded; the output format is taken from the
//     sniffed file signature, then the declared content type, then PNG.
//  2. The image is pasted onto a white canvas of the same size, which
//     flattens any transparency.
//  3. "DOCUMENT" is drawn centred in half transparent yellow.
//  4. The canvas is converted to grayscale and resized to 100x100 with
//     nearest neighbour sampling. The aspect ratio is not preserved.
//  5. The result is encoded in the chosen format.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	ThumbnailWidth  = 100
	ThumbnailHeight = 100
	WatermarkText   = "DOCUMENT"
	WatermarkSize   = 22
)

// WatermarkColor is yellow at 50% opacity.
var WatermarkColor = color.NRGBA{R: 255, G: 255, B: 0, A: 128}

var (
	watermarkFont     *opentype.Font
	watermarkFontErr  error
	watermarkFontOnce sync.Once
)

func loadFont() (*opentype.Font, error) {
	watermarkFontOnce.Do(func() {
		watermarkFont, watermarkFontErr = opentype.Parse(goregular.TTF)
	})
	return watermarkFont, watermarkFontErr
}

// Thumbnail renders the thumbnail for an encoded image.
//
// Inputs:
//   - data: The encoded source image.
//   - contentType: The declared content type, used when sniffing fails.
//
// Outputs:
//   - []byte: The encoded 100x100 thumbnail.
//   - error: Decode, watermark or encode failures.
func Thumbnail(data []byte, contentType string) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	canvas := imaging.New(src.Bounds().Dx(), src.Bounds().Dy(), color.White)
	canvas = imaging.Paste(canvas, src, image.Pt(0, 0))
	if err := Watermark(canvas, WatermarkText); err != nil {
		return nil, err
	}

	thumb := imaging.Resize(imaging.Grayscale(canvas), ThumbnailWidth, ThumbnailHeight, imaging.NearestNeighbor)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, OutputFormat(data, contentType)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// Watermark draws text centred on dst in WatermarkColor.
func Watermark(dst *image.NRGBA, text string) error {
	f, err := loadFont()
	if err != nil {
		return fmt.Errorf("parse watermark font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    WatermarkSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("watermark face: %w", err)
	}
	defer face.Close()

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(WatermarkColor),
		Face: face,
	}
	bounds := dst.Bounds()
	metrics := face.Metrics()
	width := drawer.MeasureString(text)
	x := (fixed.I(bounds.Dx()) - width) / 2
	y := (fixed.I(bounds.Dy()) + metrics.Ascent - metrics.Descent) / 2
	drawer.Dot = fixed.Point26_6{X: fixed.I(bounds.Min.X) + x, Y: fixed.I(bounds.Min.Y) + y}
	drawer.DrawString(text)
	return nil
}

// OutputFormat picks the encoding for a thumbnail of data.
func OutputFormat(data []byte, contentType string) imaging.Format {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		if format, err := imaging.FormatFromExtension(kind.Extension); err == nil {
			return format
		}
	}
	mediaType, _, _ := strings.Cut(contentType, ";")
	if sub, ok := strings.CutPrefix(strings.TrimSpace(strings.ToLower(mediaType)), "image/"); ok {
		if format, err := imaging.FormatFromExtension(sub); err == nil {
			return format
		}
	}
	return imaging.PNG
}
