package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/ovoda/invoice-tracker/internal/api/middleware"
	"github.com/ovoda/invoice-tracker/internal/extractor"
)

// MaxExtractBytes bounds the text accepted by POST /api/extract.
const MaxExtractBytes = 1 << 20

// ExtractHandler runs heuristic field extraction on posted text.
type ExtractHandler struct {
	extractor *extractor.Extractor
}

// NewExtractHandler creates an extract handler. A nil extractor uses the
// default keyword tables.
func NewExtractHandler(e *extractor.Extractor) *ExtractHandler {
	if e == nil {
		e = extractor.New(extractor.DefaultKeywords())
	}
	return &ExtractHandler{extractor: e}
}

// Extract handles POST /api/extract
// The body is either {"text": "..."} or, with a text/plain content type,
// the raw text.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, MaxExtractBytes)

	var text string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "text/plain") {
		data, err := io.ReadAll(body)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		text = string(data)
	} else {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		text = req.Text
	}

	fields := h.extractor.Extract(text)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"fields":         fields,
		"missing_fields": fields.MissingFields(),
	})
}
