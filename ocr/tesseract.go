package ocr

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// isoToTesseract maps ISO 639-1 codes to Tesseract traineddata names.
var isoToTesseract = map[string]string{
	"en": "eng",
	"ru": "rus",
	"de": "deu",
	"fr": "fra",
	"es": "spa",
	"it": "ita",
	"pt": "por",
	"uk": "ukr",
	"ja": "jpn",
	"ko": "kor",
	"zh": "chi_sim",
}

// TesseractEngine runs OCR locally. It needs no credentials and serves as
// the fallback when the vision engine misbehaves.
type TesseractEngine struct{}

func NewTesseractEngine() *TesseractEngine { return &TesseractEngine{} }

func (e *TesseractEngine) ID() string { return "tesseract" }

func (e *TesseractEngine) Extract(ctx context.Context, img *image.RGBA, languages []string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Outcome{}, Permanent("encode image", err)
	}

	// gosseract clients are not goroutine safe; one per call keeps
	// overlapping runs isolated.
	client := gosseract.NewClient()
	defer client.Close()

	if langs := tesseractLanguages(languages); len(langs) > 0 {
		if err := client.SetLanguage(langs...); err != nil {
			return Outcome{}, Permanent("set languages", err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Outcome{}, Permanent("set image", err)
	}

	text, err := client.Text()
	if err != nil {
		return Outcome{}, Permanent("recognize", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{Engine: e.ID()}, nil
	}

	return Outcome{
		Text:       text,
		Confidence: e.meanConfidence(client),
		Engine:     e.ID(),
	}, nil
}

// meanConfidence averages per-line confidences into [0,1]. A recognizer
// that cannot report boxes still yields a usable outcome.
func (e *TesseractEngine) meanConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil || len(boxes) == 0 {
		return 0.5
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes)) / 100
}

func tesseractLanguages(languages []string) []string {
	out := make([]string, 0, len(languages))
	for _, l := range languages {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if mapped, ok := isoToTesseract[l]; ok {
			out = append(out, mapped)
			continue
		}
		out = append(out, l)
	}
	return out
}
