package storage

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abatilo/triage/internal/rank"
)

const frontmatterDelimiter = "---"

// Snapshot is a stored analysis: the ranked result plus the inputs needed
// to recognise it.
type Snapshot struct {
	ID          string
	CreatedAt   time.Time
	Today       time.Time
	Fingerprint string
	Result      rank.Result
}

// snapshotFrontmatter is the YAML-serializable form of a snapshot.
type snapshotFrontmatter struct {
	ID          string      `yaml:"id"`
	CreatedAt   string      `yaml:"created_at"`
	Today       string      `yaml:"today"`
	Fingerprint string      `yaml:"fingerprint"`
	Result      rank.Result `yaml:"result"`
}

// ParseSnapshot parses a markdown file with YAML frontmatter into a Snapshot.
// The markdown body is a rendering for humans and is ignored.
func ParseSnapshot(content []byte) (*Snapshot, error) {
	lines := strings.Split(string(content), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != frontmatterDelimiter {
		return nil, &parseError{"missing YAML frontmatter"}
	}

	// Find closing delimiter
	var frontmatterEnd int
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontmatterDelimiter {
			frontmatterEnd = i
			break
		}
	}
	if frontmatterEnd == 0 {
		return nil, &parseError{"unclosed YAML frontmatter"}
	}

	yamlContent := strings.Join(lines[1:frontmatterEnd], "\n")
	var fm snapshotFrontmatter
	if err := yaml.Unmarshal([]byte(yamlContent), &fm); err != nil {
		return nil, &parseError{"invalid YAML: " + err.Error()}
	}

	createdAt, err := time.Parse(time.RFC3339, fm.CreatedAt)
	if err != nil {
		return nil, &parseError{"invalid created_at: " + err.Error()}
	}
	today, err := time.Parse(time.DateOnly, fm.Today)
	if err != nil {
		return nil, &parseError{"invalid today: " + err.Error()}
	}

	return &Snapshot{
		ID:          fm.ID,
		CreatedAt:   createdAt,
		Today:       today,
		Fingerprint: fm.Fingerprint,
		Result:      fm.Result,
	}, nil
}

// SerializeSnapshot converts a Snapshot to markdown with YAML frontmatter.
func SerializeSnapshot(s *Snapshot) ([]byte, error) {
	fm := snapshotFrontmatter{
		ID:          s.ID,
		CreatedAt:   s.CreatedAt.UTC().Format(time.RFC3339),
		Today:       s.Today.Format(time.DateOnly),
		Fingerprint: s.Fingerprint,
		Result:      s.Result,
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterDelimiter + "\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	buf.WriteString(frontmatterDelimiter + "\n\n")
	writeRanking(&buf, s)

	return buf.Bytes(), nil
}

// writeRanking renders the ranked tasks as a markdown list.
func writeRanking(buf *bytes.Buffer, s *Snapshot) {
	fmt.Fprintf(buf, "# Ranking for %s (%s)\n\n", s.Today.Format(time.DateOnly), s.Result.StrategyUsed)
	for i, t := range s.Result.Tasks {
		fmt.Fprintf(buf, "%d. [%d] %s: %.2f\n", i+1, t.ID, t.Title, t.Score)
	}
	if len(s.Result.Warnings) > 0 {
		buf.WriteString("\n## Warnings\n\n")
		for _, w := range s.Result.Warnings {
			fmt.Fprintf(buf, "- %s\n", w)
		}
	}
}
