// Package parser extracts plain text from source documents.
package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned for file extensions the parser does
// not handle.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Parse reads the file at path and returns its plain text content along
// with the normalized file type ("txt", "md", "pdf" or "docx").
func Parse(path string) (string, string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", "", fmt.Errorf("cannot read file: %w", err)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "txt", "md":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(content), ext, nil
	case "pdf":
		content, err := parsePDF(path)
		if err != nil {
			return "", "", err
		}
		return content, ext, nil
	case "docx":
		content, err := parseDocx(path)
		if err != nil {
			return "", "", err
		}
		return content, ext, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Stats summarizes parsed content for display.
type Stats struct {
	Words      int `json:"word_count"`
	Characters int `json:"character_count"`
	Sentences  int `json:"sentence_count"`
}

// ContentStats computes display statistics for parsed text. Sentences are
// counted by terminal punctuation, which is close enough for prose.
func ContentStats(content string) Stats {
	sentences := 0
	for _, r := range content {
		switch r {
		case '.', '!', '?':
			sentences++
		}
	}
	return Stats{
		Words:      len(strings.Fields(content)),
		Characters: len(content),
		Sentences:  sentences,
	}
}

func parsePDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	return buf.String(), nil
}

// docx stores its body in word/document.xml; text lives in w:t elements
// grouped into w:p paragraphs.
func parseDocx(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	defer archive.Close()

	var docFile *zip.File
	for _, file := range archive.File {
		if file.Name == "word/document.xml" {
			docFile = file
			break
		}
	}
	if docFile == nil {
		return "", errors.New("docx has no word/document.xml")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open docx body: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read docx body: %w", err)
	}

	return extractDocxText(data)
}

// extractDocxText walks the XML token stream collecting w:t character
// data, inserting a newline at each paragraph end.
func extractDocxText(data []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var sb strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("malformed docx body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return strings.TrimSpace(sb.String()), nil
}
