package pipeline

// Default values for document processing and parsing.
const (
	// DefaultDocumentType is the document type recorded for uploaded scans.
	DefaultDocumentType = "INVOICE"

	// DefaultSourceSystem is the source system recorded for uploaded scans.
	DefaultSourceSystem = "SCAN"

	// DefaultCurrency is the currency of extracted amounts.
	DefaultCurrency = "HUF"

	// ParserHeuristic is the parser type of a run without AI re-extraction.
	ParserHeuristic = "OCR_HEURISTIC"

	// ParserVersion is recorded on every parsing run.
	ParserVersion = "v1"

	// HeuristicModelName is stored on model outputs of the keyword extractor.
	HeuristicModelName = "heuristic-extractor"
)
