package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	B  = 1
	KB = 1024 * B
	MB = 1024 * KB
	GB = 1024 * MB
	TB = 1024 * GB
)

// FormatSize converts bytes to human-readable binary units
func FormatSize(size uint64) string {
	return humanize.IBytes(size)
}

// FormatCount renders an integer with thousands separators
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// binaryUnits maps accepted suffixes to the IEC names go-humanize reads,
// so the decimal-looking ones still mean powers of 1024
var binaryUnits = map[string]string{
	"":    "B",
	"B":   "B",
	"K":   "KiB",
	"KB":  "KiB",
	"KIB": "KiB",
	"M":   "MiB",
	"MB":  "MiB",
	"MIB": "MiB",
	"G":   "GiB",
	"GB":  "GiB",
	"GIB": "GiB",
	"T":   "TiB",
	"TB":  "TiB",
	"TIB": "TiB",
	"P":   "PiB",
	"PB":  "PiB",
	"PIB": "PiB",
	"E":   "EiB",
	"EB":  "EiB",
	"EIB": "EiB",
}

// ParseSize converts human-readable size to bytes.
// Units are binary (1KB = 1024 bytes). An empty string or a bare number
// is read as bytes.
func ParseSize(size string) (int64, error) {
	size = strings.TrimSpace(size)
	if size == "" {
		return 0, nil
	}

	// Split the numeric prefix from the unit suffix
	i := strings.IndexFunc(size, func(r rune) bool {
		return r != '.' && (r < '0' || r > '9')
	})
	if i == -1 {
		i = len(size)
	}
	if i == 0 {
		return 0, fmt.Errorf("invalid size format: %s", size)
	}

	unit := strings.TrimSpace(size[i:])
	iec, ok := binaryUnits[strings.ToUpper(unit)]
	if !ok {
		return 0, fmt.Errorf("unknown unit: %s", unit)
	}

	n, err := humanize.ParseBytes(size[:i] + " " + iec)
	if err != nil {
		return 0, fmt.Errorf("invalid size format: %s: %w", size, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size out of range: %s", size)
	}
	return int64(n), nil
}
