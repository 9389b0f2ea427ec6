package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrBadTemplate = errors.New("text file must have a Text,File_name header")

const textSheet = "Texts"

var templateRows = [][]string{
	{"Text", "File_name"},
	{"Hello, how are you?", "greeting1"},
	{"Welcome to our app!", "welcome1"},
}

// WriteTextTemplate writes an example batch workbook.
func WriteTextTemplate(w io.Writer) error {
	return writeWorkbook(w, textSheet, templateRows)
}

// WriteTextTemplateCSV writes the example batch as CSV.
func WriteTextTemplateCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(templateRows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteTextTemplateFile writes the template to path, as CSV when path ends
// in .csv and as a workbook otherwise.
func WriteTextTemplateFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if IsCSV(path) {
		err = WriteTextTemplateCSV(f)
	} else {
		err = WriteTextTemplate(f)
	}
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadTexts reads a Text,File_name workbook into file name -> text. Only
// the first sheet is read. Rows with an empty cell are skipped and later
// rows win on duplicate names.
func LoadTexts(r io.Reader) (map[string]string, error) {
	rows, err := readWorkbook(r)
	if err != nil {
		return nil, err
	}
	return parseTexts(rows)
}

// LoadTextsCSV is LoadTexts for a CSV batch.
func LoadTextsCSV(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return parseTexts(rows)
}

// LoadTextsFile picks the reader from the file extension.
func LoadTextsFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if IsCSV(path) {
		return LoadTextsCSV(f)
	}
	return LoadTexts(f)
}

func parseTexts(rows [][]string) (map[string]string, error) {
	if len(rows) == 0 {
		return nil, ErrBadTemplate
	}

	textCol, nameCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "text":
			textCol = i
		case "file_name":
			nameCol = i
		}
	}
	if textCol < 0 || nameCol < 0 {
		return nil, ErrBadTemplate
	}

	texts := map[string]string{}
	for _, row := range rows[1:] {
		if textCol >= len(row) || nameCol >= len(row) {
			continue
		}
		text := strings.TrimSpace(row[textCol])
		name := strings.TrimSpace(row[nameCol])
		if text == "" || name == "" {
			continue
		}
		texts[name] = text
	}
	return texts, nil
}
