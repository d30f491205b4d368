package domain

// RawDocument represents the bytes of an uploaded laboratory report.
// It is produced once per upload and never mutated.
type RawDocument struct {
	// URI is the original location (file path, upload name, etc).
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// PageBoundaries holds the byte offsets at which each page starts.
	// Optional; decoders that know the page structure ignore it.
	PageBoundaries []int

	// Metadata contains caller-specific key-value pairs.
	Metadata map[string]any
}

// DecodedDocument is the decoder's output: the document text split by page.
// Decoding is an external concern; the pipeline starts from here.
type DecodedDocument struct {
	// URI is copied from the RawDocument.
	URI string

	// FullText is the concatenation of all pages.
	FullText string

	// Pages holds the text of each page in order.
	Pages []string
}

// PageCount returns the number of pages, treating a page-less document
// with text as a single page.
func (d *DecodedDocument) PageCount() int {
	if len(d.Pages) > 0 {
		return len(d.Pages)
	}
	if d.FullText != "" {
		return 1
	}
	return 0
}

// SampleType identifies the specimen a section of a report refers to.
type SampleType string

const (
	// SampleUnknown is used when no section header was seen.
	SampleUnknown SampleType = ""

	// SampleBlood is whole blood (hemogram and differential).
	SampleBlood SampleType = "blood"

	// SampleSerum covers serum and plasma chemistry.
	SampleSerum SampleType = "serum"

	// SampleUrine covers urinalysis and urine sediment.
	SampleUrine SampleType = "urine"
)

// CompatibleWith reports whether a result taken from sample s can satisfy
// a marker that prefers sample want. Unknown on either side is compatible,
// and blood-derived samples are interchangeable.
func (s SampleType) CompatibleWith(want SampleType) bool {
	if s == SampleUnknown || want == SampleUnknown || s == want {
		return true
	}
	bloodDerived := func(t SampleType) bool { return t == SampleBlood || t == SampleSerum }
	return bloodDerived(s) && bloodDerived(want)
}

// NormalizedPage is one cleaned page of a report.
type NormalizedPage struct {
	// Number is the 1-based page number.
	Number int

	// Blocks holds the cleaned non-empty lines of the page in order.
	Blocks []string

	// Text is the cleaned page text.
	Text string
}

// Line is a single line of normalised text with its folded search form.
// Folded has the same line structure as Text but is uppercase and
// accent-free, so all pattern matching runs against it.
type Line struct {
	// Index is the 0-based line number across the whole document.
	Index int

	// Page is the 1-based page the line belongs to.
	Page int

	// Text is the cleaned line.
	Text string

	// Folded is the uppercase, accent-stripped form of Text.
	Folded string

	// Sample is the specimen of the section the line sits in.
	Sample SampleType
}

// NormalizedDocument is the Normalizer's output and is read-only afterward.
type NormalizedDocument struct {
	// URI is copied from the decoded document.
	URI string

	// Pages holds the cleaned pages.
	Pages []NormalizedPage

	// FullText is the concatenated cleaned text.
	FullText string

	// Folded is the concatenated folded text (same length in lines as FullText).
	Folded string

	// Lines indexes every line of FullText.
	Lines []Line

	// RemovedBoilerplate counts lines dropped as repeated page headers.
	RemovedBoilerplate int
}

// Position locates a fragment inside a NormalizedDocument.
type Position struct {
	Page   int `json:"page"`
	Line   int `json:"line"`
	Offset int `json:"offset"`
}
