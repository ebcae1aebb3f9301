package task

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const (
	fingerprintLength = 12
	hexChunkSize      = 4 // Process 4 hex chars (16 bits) at a time for base36 conversion
)

// Fingerprint returns a short base36 digest identifying an analysis input.
// The same batch, strategy and date always produce the same fingerprint.
func Fingerprint(tasks []Task, strategy string, today time.Time) string {
	h := sha256.New()
	for _, t := range tasks {
		h.Write([]byte(fingerprintRecord(t)))
	}
	h.Write([]byte(strategy))
	h.Write([]byte{0})
	h.Write([]byte(Day(today).Format(DateLayout)))

	base36 := hexToBase36(hex.EncodeToString(h.Sum(nil)))
	if len(base36) > fingerprintLength {
		return base36[:fingerprintLength]
	}
	return base36
}

// fingerprintRecord renders every field of t on one line. Absent optional
// fields are written as "-", which no present value produces.
func fingerprintRecord(t Task) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(t.ID))
	b.WriteByte('|')
	b.WriteString(strconv.Quote(t.Title))
	b.WriteByte('|')
	b.WriteString(strconv.Quote(t.DueDate))
	b.WriteByte('|')
	if t.EstimatedHours != nil {
		b.WriteString(strconv.FormatFloat(*t.EstimatedHours, 'g', -1, 64))
	} else {
		b.WriteByte('-')
	}
	b.WriteByte('|')
	if t.Importance != nil {
		b.WriteString(strconv.Itoa(*t.Importance))
	} else {
		b.WriteByte('-')
	}
	b.WriteByte('|')
	for i, dep := range t.Dependencies {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(dep))
	}
	b.WriteByte('\n')
	return b.String()
}

// hexToBase36 converts a hex string to base36.
func hexToBase36(hexStr string) string {
	var result strings.Builder
	for i := 0; i < len(hexStr); i += hexChunkSize {
		end := min(i+hexChunkSize, len(hexStr))
		chunk := hexStr[i:end]
		val, _ := strconv.ParseUint(chunk, 16, 64)
		result.WriteString(strconv.FormatUint(val, 36))
	}
	return result.String()
}
