package reporter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/fenilsonani/dupcleaner/internal/cleaner"
	"github.com/fenilsonani/dupcleaner/internal/scanner"
	"github.com/fenilsonani/dupcleaner/pkg/utils"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON    OutputFormat = "json"
	FormatText    OutputFormat = "txt"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
)

// ToolName is written into every export
const ToolName = "dupcleaner"

// ErrNoDuplicates is returned when there is nothing to export
var ErrNoDuplicates = errors.New("no duplicates to export")

// ParseFormat maps a flag value to an OutputFormat
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatJSON, FormatText, FormatYAML, FormatSummary:
		return OutputFormat(s), nil
	case "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Reporter handles report generation
type Reporter struct {
	writer  io.Writer
	format  OutputFormat
	version string
	now     func() time.Time
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat, version string) *Reporter {
	return &Reporter{
		writer:  writer,
		format:  format,
		version: version,
		now:     time.Now,
	}
}

// Report writes the duplicate groups in the reporter's format. Groups are
// numbered from 1 in the order given.
func (r *Reporter) Report(groups []scanner.DuplicateGroup) error {
	if len(groups) == 0 && r.format != FormatSummary {
		return ErrNoDuplicates
	}

	switch r.format {
	case FormatJSON:
		return r.reportJSON(groups)
	case FormatText:
		return r.reportText(groups)
	case FormatYAML:
		return r.reportYAML(groups)
	case FormatSummary:
		return r.reportSummary(groups)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func groupKey(i int) string {
	return "Group " + strconv.Itoa(i+1)
}

// orderedGroups marshals as a JSON object whose keys keep group order
type orderedGroups []scanner.DuplicateGroup

func (o orderedGroups) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(groupKey(i))
		if err != nil {
			return nil, err
		}
		paths, err := json.Marshal(g.Paths())
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(paths)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// reportJSON generates a JSON report
func (r *Reporter) reportJSON(groups []scanner.DuplicateGroup) error {
	report := struct {
		Tool       string        `json:"tool"`
		Version    string        `json:"version"`
		Timestamp  string        `json:"timestamp"`
		Duplicates orderedGroups `json:"duplicates"`
	}{
		Tool:       ToolName,
		Version:    r.version,
		Timestamp:  r.now().UTC().Format(time.RFC3339),
		Duplicates: groups,
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// reportText writes one block per group followed by a blank line
func (r *Reporter) reportText(groups []scanner.DuplicateGroup) error {
	for i, g := range groups {
		if _, err := fmt.Fprintf(r.writer, "%s (%d files)\n", groupKey(i), g.Len()); err != nil {
			return err
		}
		for _, p := range g.Paths() {
			if _, err := fmt.Fprintf(r.writer, "%s\n", p); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(r.writer); err != nil {
			return err
		}
	}
	return nil
}

// reportYAML generates a YAML report. A mapping node keeps group order.
func (r *Reporter) reportYAML(groups []scanner.DuplicateGroup) error {
	dups := &yaml.Node{Kind: yaml.MappingNode}
	for i, g := range groups {
		paths := &yaml.Node{Kind: yaml.SequenceNode}
		for _, p := range g.Paths() {
			paths.Content = append(paths.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: p})
		}
		dups.Content = append(dups.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: groupKey(i)},
			paths)
	}

	report := struct {
		Tool       string     `yaml:"tool"`
		Version    string     `yaml:"version"`
		Timestamp  string     `yaml:"timestamp"`
		Duplicates *yaml.Node `yaml:"duplicates"`
	}{
		Tool:       ToolName,
		Version:    r.version,
		Timestamp:  r.now().UTC().Format(time.RFC3339),
		Duplicates: dups,
	}

	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(report)
}

// reportSummary generates a summary report
func (r *Reporter) reportSummary(groups []scanner.DuplicateGroup) error {
	fmt.Fprintf(r.writer, "=== Duplicate Summary ===\n")
	fmt.Fprintf(r.writer, "Groups: %s\n", utils.FormatCount(len(groups)))
	fmt.Fprintf(r.writer, "Duplicate Files: %s\n", utils.FormatCount(scanner.DuplicateFileCount(groups)))
	fmt.Fprintf(r.writer, "Reclaimable: %s\n", utils.FormatSize(scanner.ReclaimableSize(groups)))

	if len(groups) > 0 {
		fmt.Fprintf(r.writer, "\nLargest Groups:\n")
	}
	for i, g := range largest(groups, 5) {
		fmt.Fprintf(r.writer, "  %d. %d files x %s (%s reclaimable)\n",
			i+1, g.Len(), utils.FormatSize(g.Size), utils.FormatSize(g.ReclaimableSize()))
	}

	return nil
}

// largest returns up to n groups with the most reclaimable bytes, stable
// on ties
func largest(groups []scanner.DuplicateGroup, n int) []scanner.DuplicateGroup {
	sorted := scanner.CloneGroups(groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ReclaimableSize() > sorted[j].ReclaimableSize()
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// SaveToFile saves the report to a file
func SaveToFile(groups []scanner.DuplicateGroup, path string, format OutputFormat, version string) error {
	if len(groups) == 0 && format != FormatSummary {
		return ErrNoDuplicates
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := New(file, format, version).Report(groups); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// PrintDeletionSummary writes the outcome of a deletion pass
func PrintDeletionSummary(w io.Writer, report *cleaner.DeletionReport) {
	title := "Deletion Summary"
	if report.DryRun {
		title = "Deletion Summary (dry run)"
	}
	fmt.Fprintf(w, "=== %s ===\n", title)
	fmt.Fprintf(w, "Deleted: %s\n", utils.FormatCount(report.Deleted))
	if report.FallbackCount > 0 {
		fmt.Fprintf(w, "  permanently (trash unavailable): %s\n", utils.FormatCount(report.FallbackCount))
	}
	fmt.Fprintf(w, "Skipped: %s", utils.FormatCount(report.Skipped()))
	if report.Skipped() > 0 {
		fmt.Fprintf(w, " (lock files %d, missing %d, not selected %d)",
			report.SkippedTemp, report.SkippedMissing, report.SkippedUnselected)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Failed: %s\n", utils.FormatCount(report.Failed))
	fmt.Fprintf(w, "Space Freed: %s\n", utils.FormatSize(report.BytesFreed))

	printSample(w, "Skipped", report.SkippedSample, report.SkippedTemp+report.SkippedMissing, nil)

	reasons := make(map[string]*cleaner.DeletionError, len(report.Errors))
	for _, e := range report.Errors {
		reasons[e.Path] = e
	}
	printSample(w, "Failed", report.FailedSample, report.Failed, func(p string) string {
		if e, ok := reasons[p]; ok {
			return e.UserMessage()
		}
		return p
	})

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\n%s", cleaner.FormatErrorSummary(report.Errors))
	}
}

// printSample lists sample paths, each passed through describe when set
func printSample(w io.Writer, label string, sample []string, total int, describe func(string) string) {
	if len(sample) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s files:\n", label)
	for _, p := range sample {
		if describe != nil {
			p = describe(p)
		}
		fmt.Fprintf(w, "  %s\n", p)
	}
	if total > len(sample) {
		fmt.Fprintf(w, "  ... and %d more\n", total-len(sample))
	}
}
