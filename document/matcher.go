package document

import (
	"fmt"
	"strings"

	"mailresolve/model"
	"mailresolve/normalize"
	"mailresolve/trace"
)

type KeyKind string

const (
	KeyPersonnelID KeyKind = "personnel_id"
	KeyPersonName  KeyKind = "person_name"
)

// Key is one match token. Token is expected normalized; normalization is
// idempotent, so pre-normalized callers pay nothing.
type Key struct {
	Kind  KeyKind
	Token string
}

// Match is one matched document row.
type Match struct {
	SheetName string
	RowIndex  int // 1-based
	Row       model.EvidenceRow
	Key       Key
}

// MatchRow scans every sheet in document order and, within each, every row
// top to bottom. Each row's cells are concatenated, normalized, and tested
// for containment of each key in order; the first matching row wins. Every
// scanned row is recorded in the trace so a definitive failure can surface
// the full scan.
func MatchRow(wb Workbook, keys []Key, tr *trace.Recorder) (Match, bool) {
	for _, sheet := range wb.Sheets() {
		name := sheet.Name()
		for i, row := range sheet.Rows() {
			rowText := strings.Join(row, " ")
			tr.Record(trace.Event{
				Kind:   trace.KindRow,
				Label:  fmt.Sprintf("%s:%d", name, i+1),
				Detail: rowText,
			})
			normalized := normalize.Token(rowText)
			for _, key := range keys {
				tok := normalize.Token(key.Token)
				if tok == "" {
					continue
				}
				if strings.Contains(normalized, tok) {
					return Match{SheetName: name, RowIndex: i + 1, Row: toEvidenceRow(row), Key: key}, true
				}
			}
		}
	}
	return Match{}, false
}

// DefaultAnswerColumn is the designated answer column ("J") of the
// fixed-schema submission log.
const DefaultAnswerColumn = 10

// MatchAnswerColumn is the targeted variant for fixed-schema documents that
// behave as an append-only log: the first empty cell in the designated
// column, scanning from the top, bounds the log; rows are then scanned
// upward from just above that bound, and the first row whose designated
// cell contains the key wins, i.e. the most recent matching submission.
// An embedded blank cell before the true end of the log bounds the scan
// early; rows below it are never seen.
func MatchAnswerColumn(wb Workbook, key Key, col int) (Match, bool) {
	if col < 1 {
		col = DefaultAnswerColumn
	}
	tok := normalize.Token(key.Token)
	if tok == "" {
		return Match{}, false
	}

	for _, sheet := range wb.Sheets() {
		rows := sheet.Rows()

		firstEmpty := len(rows)
		for i, row := range rows {
			if strings.TrimSpace(cellAt(row, col)) == "" {
				firstEmpty = i
				break
			}
		}

		for i := firstEmpty - 1; i >= 0; i-- {
			value := cellAt(rows[i], col)
			if strings.TrimSpace(value) == "" {
				continue
			}
			if strings.Contains(normalize.Token(value), tok) {
				return Match{SheetName: sheet.Name(), RowIndex: i + 1, Row: toEvidenceRow(rows[i]), Key: key}, true
			}
		}
	}
	return Match{}, false
}

func cellAt(row []string, col int) string {
	if col > len(row) {
		return ""
	}
	return row[col-1]
}

func toEvidenceRow(row []string) model.EvidenceRow {
	out := make(model.EvidenceRow, len(row))
	for i, cell := range row {
		out[i] = cell
	}
	return out
}
