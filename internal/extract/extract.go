// Package extract converts uploaded file bytes into plain text for ingestion.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/clearstack/agentbox/internal/domain"
)

// AllowedTypes is the fixed upload allow-list, by file extension.
var AllowedTypes = []string{"txt", "json", "pdf", "docx"}

// IsAllowedType reports whether fileType is in the upload allow-list.
func IsAllowedType(fileType string) bool {
	for _, t := range AllowedTypes {
		if t == fileType {
			return true
		}
	}
	return false
}

// Text extracts plain text from file content of the declared type.
// Unknown types fail with an UNSUPPORTED_FORMAT domain error.
func Text(content []byte, fileType string) (string, error) {
	switch strings.ToLower(fileType) {
	case "txt":
		if !utf8.Valid(content) {
			return "", domain.NewDomainError(domain.ErrCodeValidation, "text file is not valid UTF-8")
		}
		return string(content), nil
	case "json":
		return fromJSON(content)
	case "pdf":
		return fromPDF(content)
	case "docx":
		return fromDOCX(content)
	default:
		return "", domain.NewDomainError(domain.ErrCodeUnsupportedFormat,
			fmt.Sprintf("unsupported file type %q, allowed: %s", fileType, strings.Join(AllowedTypes, ", ")))
	}
}

// fromJSON flattens the document into `key: value` lines, depth-first,
// so structured knowledge files remain searchable as prose. Object keys are
// visited in sorted order so the same document always yields the same text.
func fromJSON(content []byte) (string, error) {
	var data any
	if err := json.Unmarshal(content, &data); err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid JSON document", err)
	}
	return flattenJSON(data), nil
}

func flattenJSON(v any) string {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+flattenJSON(val[k]))
		}
		return strings.Join(parts, "\n")
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, flattenJSON(item))
		}
		return strings.Join(parts, "\n")
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func fromPDF(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to read PDF", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation,
				fmt.Sprintf("failed to extract text from PDF page %d", i), err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func fromDOCX(content []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to read DOCX", err)
	}
	defer r.Close()

	raw := r.Editable().GetContent()
	return stripXMLTags(raw), nil
}

// stripXMLTags drops markup from document.xml, inserting newlines at
// paragraph boundaries.
func stripXMLTags(raw string) string {
	raw = strings.ReplaceAll(raw, "</w:p>", "\n")

	var sb strings.Builder
	inTag := false
	for _, r := range raw {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	text := sb.String()
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", `"`)
	text = strings.ReplaceAll(text, "&apos;", "'")
	return text
}
