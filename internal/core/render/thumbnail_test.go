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

package render_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := imaging.New(w, h, c)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestThumbnailIsGrayscale100x100(t *testing.T) {
	src := solidPNG(t, 320, 200, color.NRGBA{R: 200, G: 30, B: 30, A: 255})

	out, err := render.Thumbnail(src, "image/png")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())

	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != g || g != b {
				t.Fatalf("pixel (%d,%d) is not gray: %d %d %d", x, y, r, g, b)
			}
		}
	}
}

func TestThumbnailKeepsJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, imaging.New(64, 64, color.White), nil))

	out, err := render.Thumbnail(buf.Bytes(), "image/jpeg")
	require.NoError(t, err)

	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	_, err := render.Thumbnail([]byte("not an image"), "image/png")
	assert.Error(t, err)
}

func TestWatermarkMarksCanvas(t *testing.T) {
	canvas := imaging.New(200, 60, color.White)
	require.NoError(t, render.Watermark(canvas, render.WatermarkText))

	marked := false
	for i := 0; i < len(canvas.Pix); i += 4 {
		if canvas.Pix[i+2] != 255 {
			marked = true
			break
		}
	}
	assert.True(t, marked, "expected some pixels to lose their blue channel")
}

func TestOutputFormat(t *testing.T) {
	pngBytes := solidPNG(t, 2, 2, color.Black)

	assert.Equal(t, imaging.PNG, render.OutputFormat(pngBytes, "image/jpeg"))
	assert.Equal(t, imaging.GIF, render.OutputFormat([]byte("????"), "image/gif"))
	assert.Equal(t, imaging.JPEG, render.OutputFormat(nil, "image/jpeg; charset=binary"))
	assert.Equal(t, imaging.PNG, render.OutputFormat(nil, "application/octet-stream"))
}
