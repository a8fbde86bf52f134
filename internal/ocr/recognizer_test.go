package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/domain/timesheet"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Name() string { return "mock" }

func (m *mockEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	args := m.Called(ctx, image)
	return args.String(0), args.Error(1)
}

func page() image.Image {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	return img
}

func docWithPages(n int) (*timesheet.Document, *int) {
	renders := 0
	render := func(context.Context) ([]image.Image, error) {
		renders++
		out := make([]image.Image, n)
		for i := range out {
			out[i] = page()
		}
		return out, nil
	}
	return timesheet.NewDocument("card.pdf", nil, nil, render), &renders
}

func TestRecognize_JoinsPagesAndCorrectsDigits(t *testing.T) {
	engine := &mockEngine{}
	engine.On("Recognize", mock.Anything, mock.Anything).Return("JOÃO DA SILVA", nil).Once()
	engine.On("Recognize", mock.Anything, mock.Anything).Return("03/03/2O25  O8:00", nil).Once()
	doc, _ := docWithPages(2)
	r := NewRecognizer(engine, DefaultPreprocessConfig(), zap.NewNop())

	text, err := r.Recognize(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, "JOÃO DA SILVA\n03/03/2025 08:00", text)
	engine.AssertExpectations(t)
}

func TestRecognize_CachedOnDocument(t *testing.T) {
	engine := &mockEngine{}
	engine.On("Recognize", mock.Anything, mock.Anything).Return("texto", nil).Once()
	doc, renders := docWithPages(1)
	r := NewRecognizer(engine, DefaultPreprocessConfig(), zap.NewNop())

	first, err := r.Recognize(context.Background(), doc)
	require.NoError(t, err)
	second, err := r.Recognize(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, *renders)
	engine.AssertNumberOfCalls(t, "Recognize", 1)
}

func TestRecognize_EngineFailureIsUnavailable(t *testing.T) {
	engine := &mockEngine{}
	engine.On("Recognize", mock.Anything, mock.Anything).Return("", errors.New("libtesseract missing"))
	doc, _ := docWithPages(1)
	r := NewRecognizer(engine, DefaultPreprocessConfig(), zap.NewNop())

	_, err := r.Recognize(context.Background(), doc)

	assert.ErrorIs(t, err, timesheet.ErrOCRUnavailable)
}

func TestRecognize_NoEngine(t *testing.T) {
	doc, renders := docWithPages(1)
	r := NewRecognizer(nil, DefaultPreprocessConfig(), zap.NewNop())

	_, err := r.Recognize(context.Background(), doc)

	assert.ErrorIs(t, err, timesheet.ErrOCRUnavailable)
	assert.Zero(t, *renders)
}

func TestRecognize_NotRenderable(t *testing.T) {
	engine := &mockEngine{}
	doc := timesheet.NewDocument("card.pdf", nil, nil, nil)
	r := NewRecognizer(engine, DefaultPreprocessConfig(), zap.NewNop())

	_, err := r.Recognize(context.Background(), doc)

	assert.ErrorIs(t, err, timesheet.ErrOCRUnavailable)
	engine.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything)
}

func TestRecognize_RenderError(t *testing.T) {
	engine := &mockEngine{}
	doc := timesheet.NewDocument("card.pdf", nil, nil, func(context.Context) ([]image.Image, error) {
		return nil, errors.New("no pages rendered")
	})
	r := NewRecognizer(engine, DefaultPreprocessConfig(), zap.NewNop())

	_, err := r.Recognize(context.Background(), doc)

	assert.ErrorIs(t, err, timesheet.ErrOCRUnavailable)
}

func TestPreprocess_GrayscaleAndUpscale(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 110, 60))
	for y := 10; y < 60; y++ {
		for x := 10; x < 110; x++ {
			src.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}

	out := Preprocess(src, PreprocessConfig{Contrast: 3, MinWidth: 400})

	assert.Equal(t, image.Rect(0, 0, 400, 200), out.Bounds())
	assert.InDelta(t, 255, float64(out.GrayAt(200, 100).Y), 1)
}

func TestAdjustContrast(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.Pix[0], img.Pix[1] = 100, 140

	adjustContrast(img, 3)

	assert.Equal(t, uint8(60), img.Pix[0])
	assert.Equal(t, uint8(180), img.Pix[1])
}

func TestSharpen_FlatImageUnchanged(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 5, 5))
	for i := range img.Pix {
		img.Pix[i] = 90
	}

	out := sharpen(img)

	assert.Equal(t, img.Pix, out.Pix)
}

func TestSharpen_EnhancesEdge(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 3))
	for i := range img.Pix {
		img.Pix[i] = 100
	}
	img.Pix[4] = 160

	out := sharpen(img)

	assert.Greater(t, out.Pix[4], img.Pix[4])
}
