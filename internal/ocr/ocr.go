// Package ocr recognizes printed text on scanned invoices.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
)

// TextRecognizer turns an image into plain text, one recognized line per line.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// AzureRecognizer calls the Azure Computer Vision printed-text endpoint.
type AzureRecognizer struct {
	client   computervision.BaseClient
	language computervision.OcrLanguages
	enhance  bool
}

// NewAzureRecognizer creates a recognizer for the given endpoint and key.
// language is an OCR language code such as "hu"; empty means auto-detect.
func NewAzureRecognizer(endpoint, apiKey, language string) *AzureRecognizer {
	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)

	lang := computervision.OcrLanguages(language)
	if language == "" {
		lang = computervision.OcrLanguagesUnk
	}

	return &AzureRecognizer{
		client:   client,
		language: lang,
		enhance:  true,
	}
}

// WithoutEnhancement disables image pre-processing before recognition.
func (r *AzureRecognizer) WithoutEnhancement() *AzureRecognizer {
	r.enhance = false
	return r
}

// Recognize runs OCR on the image bytes.
func (r *AzureRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	data := image
	if r.enhance {
		enhanced, err := Enhance(image)
		if err != nil {
			return "", fmt.Errorf("Recognize: %w", err)
		}
		data = enhanced
	}

	result, err := r.client.RecognizePrintedTextInStream(
		ctx,
		true,
		io.NopCloser(bytes.NewReader(data)),
		r.language,
	)
	if err != nil {
		return "", fmt.Errorf("Recognize: failed to extract text: %w", err)
	}

	return strings.Join(Lines(result), "\n"), nil
}

// Lines flattens an OCR result into text lines in reading order.
// Words within a line are joined with a single space.
func Lines(result computervision.OcrResult) []string {
	if result.Regions == nil {
		return nil
	}

	var lines []string
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			words := make([]string, 0, len(*line.Words))
			for _, word := range *line.Words {
				if word.Text == nil || *word.Text == "" {
					continue
				}
				words = append(words, *word.Text)
			}
			if len(words) > 0 {
				lines = append(lines, strings.Join(words, " "))
			}
		}
	}
	return lines
}
