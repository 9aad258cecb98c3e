package timeframes

import (
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
)

// Document is the exported diagnostic artifact: one per station, with
// human-readable timestamps. It is an inspection aid, never a system of
// record.
type Document struct {
	Fields     []string     `json:"fields"`
	Timeframes []frameJSON `json:"timeframes"`
}

type frameJSON struct {
	From       string     `json:"from"`
	To         string     `json:"to"`
	Indicators string     `json:"indicators"`
	Days       int        `json:"days"`
	Rows       [][]string `json:"rows,omitempty"`
}

// NewDocument assembles the export document for a segmented series.
// Bordering rows are included only when withRows is set.
func NewDocument(fields []string, frames []Timeframe, withRows bool) Document {
	doc := Document{
		Fields:     fields,
		Timeframes: make([]frameJSON, 0, len(frames)),
	}
	for _, tf := range frames {
		fj := frameJSON{
			From:       tf.From.Human(),
			To:         tf.To.Human(),
			Indicators: tf.Indicators,
			Days:       tf.Units,
		}
		if withRows {
			fj.Rows = tf.Rows
		}
		doc.Timeframes = append(doc.Timeframes, fj)
	}
	return doc
}

// Export writes the document as indented JSON.
func Export(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode timeframe document: %w", err)
	}
	return nil
}

// ExportFile writes the document to path, overwriting any previous export.
func ExportFile(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := Export(f, doc); err != nil {
		return err
	}
	return f.Close()
}
