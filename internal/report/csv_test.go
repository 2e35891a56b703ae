package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/erazemk/ambulanta/internal/model"
	"github.com/erazemk/ambulanta/internal/store"
)

func sampleReport() *store.Report {
	return &store.Report{
		Title:  "Port call",
		Status: model.OrderNew,
		Rows: []store.ReportRow{
			{
				Kind:        model.KindMedicine,
				Name:        "Paracétamol",
				Category:    "1 Analgesics",
				Subcategory: "1.1 Oral",
				Quantity:    3,
				ExpiryDate:  "01-06-2026",
				UnitPrice:   decimal.NewNullDecimal(decimal.RequireFromString("2.5")),
			},
			{
				Kind:        model.KindEquipment,
				Name:        "Splint",
				Category:    model.GroupUncategorized,
				Subcategory: model.GroupUncategorized,
				Quantity:    1,
			},
		},
	}
}

func TestWriteCSVUTF8(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleReport(), ""); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("expected UTF-8 byte order mark")
	}
	lines := strings.Split(strings.TrimSpace(string(out[3:])), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "medicine,Paracétamol,,1 Analgesics,1.1 Oral,,3,01-06-2026,,,2.50") {
		t.Errorf("unexpected first row: %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], ",1,,,,") {
		t.Errorf("expected empty price on second row: %q", lines[2])
	}
}

func TestWriteCSVWindows1252(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleReport(), CharsetWindows1252); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	if bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("unexpected byte order mark in windows-1252 output")
	}
	if !bytes.Contains(buf.Bytes(), []byte("Parac\xe9tamol")) {
		t.Error("expected é encoded as a single windows-1252 byte")
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(buf.Bytes())
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if !strings.Contains(string(decoded), "Paracétamol") {
		t.Error("round trip lost the accented name")
	}
}

func TestWriteCSVUnknownCharset(t *testing.T) {
	if ValidCharset("ebcdic") {
		t.Error("ebcdic should not be supported")
	}
	if err := WriteCSV(&bytes.Buffer{}, sampleReport(), "ebcdic"); err == nil {
		t.Error("expected error for unknown charset")
	}
}
