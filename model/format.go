package model

import (
	"encoding/base64"
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/hangxie/parquet-go/v2/parquet"
	"github.com/hangxie/parquet-go/v2/types"
)

// FormatBytes formats bytes as human readable size
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatValue renders a decoded value for display surfaces (TUI, HTTP API).
// Binary byte arrays that are not printable UTF-8 are base64 encoded; INT96
// values are interpreted as timestamps.
func FormatValue(value interface{}, elem *parquet.SchemaElement) string {
	if value == nil {
		return ""
	}
	if elem != nil && elem.Type != nil {
		switch *elem.Type {
		case parquet.Type_INT96:
			if s, ok := value.(string); ok {
				return types.INT96ToTime(s).UTC().Format(time.RFC3339Nano)
			}
		case parquet.Type_BYTE_ARRAY, parquet.Type_FIXED_LEN_BYTE_ARRAY:
			s, ok := value.(string)
			if !ok {
				break
			}
			if isString(elem) || IsValidUTF8(s) {
				return s
			}
			return base64.StdEncoding.EncodeToString([]byte(s))
		}
	}
	switch v := value.(type) {
	case string:
		return v
	case float32, float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// isString reports whether the element is annotated as UTF-8 text.
func isString(elem *parquet.SchemaElement) bool {
	if elem.ConvertedType != nil && *elem.ConvertedType == parquet.ConvertedType_UTF8 {
		return true
	}
	return elem.LogicalType != nil && elem.LogicalType.IsSetSTRING()
}

// IsValidUTF8 checks if a string contains valid and mostly printable UTF-8
func IsValidUTF8(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}

	printable := 0
	total := 0
	for _, r := range s {
		total++
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}

	// Require at least 80% printable characters
	return total > 0 && (printable*100/total >= 80)
}
