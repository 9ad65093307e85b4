// Package csvutil parses member roster uploads.
//
// Columns, in order: name, email, phone, celula. Only name is required.
// A header row is detected and skipped, and a UTF-8 BOM is ignored.
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/celulahub/celulahub/internal/app/system/inputval"
	"github.com/celulahub/celulahub/internal/app/system/normalize"
)

// ErrTooManyRows is returned when the file has more than MaxRows data rows.
var ErrTooManyRows = fmt.Errorf("csv has more than %d rows", MaxRows)

// MemberRow is one normalized data row. Line is 1-based and counts the
// header when there is one.
type MemberRow struct {
	Line   int    `json:"line"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Celula string `json:"celula,omitempty"`
}

// RowError explains why a line was rejected.
type RowError struct {
	Line   int    `json:"line"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// MemberResult holds the parsed rows and every rejected line.
type MemberResult struct {
	Rows   []MemberRow
	Errors []RowError
}

func (r MemberResult) HasErrors() bool { return len(r.Errors) > 0 }

var headerNames = map[string]bool{"name": true, "nome": true, "full name": true}

func isHeader(rec []string) bool {
	return len(rec) > 0 && headerNames[strings.ToLower(strings.TrimSpace(rec[0]))]
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}

// ParseMembers reads a roster. Malformed CSV is an error; invalid rows are
// reported in the result so callers can reject the whole upload at once.
func ParseMembers(r io.Reader) (MemberResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var res MemberResult
	seenEmail := map[string]int{}
	line := 0
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return MemberResult{}, err
		}
		line++
		if line == 1 && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
			if isHeader(rec) {
				continue
			}
		}

		row := MemberRow{
			Line:   line,
			Name:   normalize.Name(field(rec, 0)),
			Email:  normalize.Email(field(rec, 1)),
			Phone:  field(rec, 2),
			Celula: normalize.Name(field(rec, 3)),
		}
		if row.Name == "" && row.Email == "" && row.Phone == "" && row.Celula == "" {
			continue
		}
		if len(res.Rows)+len(res.Errors) >= MaxRows {
			return MemberResult{}, ErrTooManyRows
		}

		switch {
		case row.Name == "":
			res.Errors = append(res.Errors, RowError{Line: line, Reason: "missing name"})
			continue
		case utf8.RuneCountInString(row.Name) > 200:
			res.Errors = append(res.Errors, RowError{Line: line, Name: row.Name, Reason: "name longer than 200 characters"})
			continue
		case row.Email != "" && !inputval.IsValidEmail(row.Email):
			res.Errors = append(res.Errors, RowError{Line: line, Name: row.Name, Reason: "invalid email"})
			continue
		}
		if row.Email != "" {
			if first, dup := seenEmail[row.Email]; dup {
				res.Errors = append(res.Errors, RowError{
					Line: line, Name: row.Name,
					Reason: fmt.Sprintf("email repeats line %d", first),
				})
				continue
			}
			seenEmail[row.Email] = line
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}
