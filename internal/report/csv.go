// Package report renders order and utilization snapshots for desktop
// spreadsheets.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/erazemk/ambulanta/internal/store"
)

// Supported charsets.
const (
	CharsetUTF8        = "utf-8"
	CharsetWindows1250 = "windows-1250"
	CharsetWindows1252 = "windows-1252"
)

var header = []string{
	"kind", "name", "packaging", "category", "subcategory", "sub_subcategory",
	"quantity", "expiry_date", "notes", "reason_for_disposal", "unit_price",
}

// ValidCharset reports whether charset is supported by WriteCSV.
func ValidCharset(charset string) bool {
	_, ok := encoderFor(charset)
	return ok
}

func encoderFor(charset string) (*encoding.Encoder, bool) {
	switch strings.ToLower(charset) {
	case "", CharsetUTF8, "utf8":
		return nil, true
	case CharsetWindows1250, "cp1250":
		return encoding.ReplaceUnsupported(charmap.Windows1250.NewEncoder()), true
	case CharsetWindows1252, "cp1252":
		return encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()), true
	}
	return nil, false
}

// WriteCSV writes the rows of r as CSV in the given charset. UTF-8 output
// starts with a byte order mark so spreadsheets detect the encoding.
// Characters the charset cannot represent are replaced.
func WriteCSV(w io.Writer, r *store.Report, charset string) error {
	enc, ok := encoderFor(charset)
	if !ok {
		return fmt.Errorf("unsupported charset %q", charset)
	}

	var out io.Writer = w
	var tw io.WriteCloser
	if enc == nil {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("writing byte order mark: %w", err)
		}
	} else {
		tw = transform.NewWriter(w, enc)
		out = tw
	}

	cw := csv.NewWriter(out)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range r.Rows {
		price := ""
		if row.UnitPrice.Valid {
			price = row.UnitPrice.Decimal.StringFixed(2)
		}
		record := []string{
			string(row.Kind),
			row.Name,
			row.Packaging,
			row.Category,
			row.Subcategory,
			row.SubSubcategory,
			strconv.Itoa(row.Quantity),
			row.ExpiryDate,
			row.Notes,
			row.ReasonForDisposal,
			price,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	if tw != nil {
		if err := tw.Close(); err != nil {
			return fmt.Errorf("encoding csv: %w", err)
		}
	}
	return nil
}
