// Package decode implements LogLens's byte-to-text decoding stage (C1):
// encoding detection plus a per-line decoding cascade with sentinel
// fallback, per spec.md §4.1.
package decode

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/loglens/loglens/internal/clierr"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding labels returned by Detect.
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF16LE      = "utf-16le"
	EncodingUTF16BE      = "utf-16be"
	EncodingWindows1252 = "windows-1252"
)

// sniffWindow bounds how many leading bytes the structural scan inspects.
const sniffWindow = 2048

// MaxFileSize is the input-size guard of spec.md §7: files larger than
// this are rejected with InvalidInput before decoding.
const MaxFileSize = 512 * 1024 * 1024 // 512 MiB

// MaxLineLength truncates parser-visible lines at this many bytes,
// appending a marker, per spec.md §7's line-length guard.
const MaxLineLength = 64 * 1024

// Result is the outcome of decoding a byte buffer into lines.
type Result struct {
	Lines    []string
	Encoding string
}

// Decode detects the encoding of data and splits it into decoded lines.
// It never fails except on the size guard; malformed lines become
// [DECODE_ERROR] sentinels rather than aborting the whole file.
func Decode(data []byte) (*Result, error) {
	if len(data) > MaxFileSize {
		return nil, clierr.New(clierr.KindInvalidInput, fmt.Sprintf("file exceeds maximum size of %d bytes", MaxFileSize))
	}

	enc := Detect(data)
	rawLines := splitLines(stripBOM(data, enc))

	lines := make([]string, 0, len(rawLines))
	for i, raw := range rawLines {
		lines = append(lines, decodeLine(raw, i+1))
	}
	return &Result{Lines: lines, Encoding: enc}, nil
}

// Detect guesses the encoding of data per spec.md §4.1's decision policy:
// strong UTF-16 wins; else UTF-8 above 0.98 confidence with no invalid
// bytes; else the Latin-1 family (via Windows-1252) if its confidence
// exceeds UTF-8's; else default to Windows-1252.
func Detect(data []byte) string {
	if bom := detectBOM(data); bom != "" {
		return bom
	}

	window := data
	if len(window) > sniffWindow {
		window = window[:sniffWindow]
	}

	if looksLikeUTF16(window) {
		return EncodingUTF16LE
	}

	utf8Confidence, invalidBytes := utf8Confidence(window)
	if utf8Confidence > 0.98 && invalidBytes == 0 {
		return EncodingUTF8
	}

	latinConfidence := latin1Confidence(window)
	if latinConfidence > utf8Confidence {
		return EncodingWindows1252
	}

	return EncodingWindows1252
}

func detectBOM(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return EncodingUTF8
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return EncodingUTF16LE
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return EncodingUTF16BE
	default:
		return ""
	}
}

func stripBOM(data []byte, enc string) []byte {
	switch enc {
	case EncodingUTF8:
		return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	case EncodingUTF16LE:
		return bytes.TrimPrefix(data, []byte{0xFF, 0xFE})
	case EncodingUTF16BE:
		return bytes.TrimPrefix(data, []byte{0xFE, 0xFF})
	default:
		return data
	}
}

// looksLikeUTF16 detects the classic alternating-zero byte pattern of
// UTF-16-encoded ASCII text.
func looksLikeUTF16(window []byte) bool {
	if len(window) < 4 {
		return false
	}
	zerosAtOdd, zerosAtEven := 0, 0
	pairs := len(window) / 2
	if pairs == 0 {
		return false
	}
	for i := 0; i+1 < len(window); i += 2 {
		if window[i] == 0 {
			zerosAtEven++
		}
		if window[i+1] == 0 {
			zerosAtOdd++
		}
	}
	// Strong signal: one of the two byte lanes is almost always zero.
	return float64(zerosAtOdd)/float64(pairs) > 0.6 || float64(zerosAtEven)/float64(pairs) > 0.6
}

// utf8Confidence returns the fraction of the window that forms valid UTF-8
// and a count of invalid bytes encountered.
func utf8Confidence(window []byte) (confidence float64, invalidBytes int) {
	if len(window) == 0 {
		return 1, 0
	}
	valid := 0
	i := 0
	for i < len(window) {
		r, size := utf8.DecodeRune(window[i:])
		if r == utf8.RuneError && size <= 1 {
			invalidBytes++
			i++
			continue
		}
		valid += size
		i += size
	}
	return float64(valid) / float64(len(window)), invalidBytes
}

// latin1Confidence scores a window on "looks like extended-Latin text":
// few control characters outside whitespace, and a plausible density of
// high-bit-set Latin-1 indicator bytes.
func latin1Confidence(window []byte) float64 {
	if len(window) == 0 {
		return 0
	}
	printable := 0
	controlDensity := 0
	for _, b := range window {
		switch {
		case b == '\n' || b == '\r' || b == '\t':
			printable++
		case b < 0x20:
			controlDensity++
		case b >= 0x20 && b < 0x7F:
			printable++
		case b >= 0xA0:
			printable++
		default:
			// 0x7F-0x9F: Latin-1 control range, weak signal either way.
		}
	}
	score := float64(printable) / float64(len(window))
	score -= float64(controlDensity) / float64(len(window))
	if score < 0 {
		score = 0
	}
	return score
}

func splitLines(data []byte) [][]byte {
	normalized := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	normalized = bytes.ReplaceAll(normalized, []byte("\r"), []byte("\n"))
	if len(normalized) == 0 {
		return nil
	}
	parts := bytes.Split(normalized, []byte("\n"))
	// A trailing newline produces one trailing empty element; drop it to
	// match line-oriented expectations, but keep genuinely empty files
	// as zero lines rather than one.
	if len(parts) > 0 && len(parts[len(parts)-1]) == 0 {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// decodeCascade is tried, in order, for every line. The first candidate
// producing a mostly-printable result wins. The UTF-16 candidates are
// skipped for lines of 4 or more bytes that lack the alternating-zero
// pattern looksLikeUTF16 checks for.
var decodeCascade = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-8", encoding.Nop},
	{"windows-1252", charmap.Windows1252},
	{"iso-8859-2", charmap.ISO8859_2},
	{"iso-8859-3", charmap.ISO8859_3},
	{"utf-16le", unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	{"utf-16be", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
}

const printableThreshold = 0.70

func decodeLine(raw []byte, lineNum int) string {
	truncated := false
	if len(raw) > MaxLineLength {
		raw = raw[:MaxLineLength]
		truncated = true
	}

	for _, candidate := range decodeCascade {
		if strings.HasPrefix(candidate.name, "utf-16") && len(raw) >= 4 && !looksLikeUTF16(raw) {
			continue
		}
		var decoded string
		var err error
		if candidate.name == "utf-8" {
			if !utf8.Valid(raw) {
				continue
			}
			decoded = string(raw)
		} else {
			decoded, err = candidate.enc.NewDecoder().String(string(raw))
			if err != nil {
				continue
			}
		}
		if printableRatio(decoded) >= printableThreshold {
			if truncated {
				decoded += " [TRUNCATED]"
			}
			return decoded
		}
	}

	// Lossy UTF-8 fallback.
	lossy := strings.ToValidUTF8(string(raw), "�")
	if printableRatio(lossy) >= printableThreshold {
		if truncated {
			lossy += " [TRUNCATED]"
		}
		return lossy
	}

	return fmt.Sprintf("[DECODE_ERROR] Line %d: unable to decode as printable text", lineNum)
}

func printableRatio(s string) float64 {
	if s == "" {
		return 1
	}
	printable := 0
	total := 0
	for _, r := range s {
		total++
		if r == '\t' || r == '\n' || r == '\r' || (r >= 0x20 && r != 0x7F) {
			printable++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(printable) / float64(total)
}
