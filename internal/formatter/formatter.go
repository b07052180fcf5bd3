// package formatter renders the working playlist to various formats (plain text, Markdown, CSV, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/playlist"
	"github.com/desertthunder/vibelist/internal/shared"
)

// Format names an output format.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "md"
	CSV      Format = "csv"
	JSON     Format = "json"
)

// ParseFormat accepts a format name or common alias. Empty selects [Text].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "md", "markdown":
		return Markdown, nil
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	if f == Text {
		return "txt"
	}
	return string(f)
}

// Render converts p to format f.
func Render(p models.Playlist, f Format) ([]byte, error) {
	switch f {
	case Text:
		return ExportToText(p)
	case Markdown:
		return ExportToMarkdown(p)
	case CSV:
		return ExportToCSV(p)
	case JSON:
		return ExportToJSON(p)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// Marker is the short status tag shown next to an entry.
func Marker(s models.ValidationState) string {
	switch s {
	case models.Validated:
		return "[ok]"
	case models.Validating:
		return "[..]"
	case models.NeedsSelection:
		return "[??]"
	case models.Error:
		return "[!!]"
	default:
		return "[  ]"
	}
}

// ExportToCSV converts p to CSV with one row per entry in playlist order.
func ExportToCSV(p models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Artist", "Album", "Duration", "State", "Spotify ID", "URI", "Candidates", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, e := range p.Entries {
		var matchID, uri string
		if e.Match != nil {
			matchID, uri = e.Match.ID, e.Match.URI
		}

		record := []string{
			strconv.Itoa(i + 1),
			e.ID,
			e.Name,
			e.Artist,
			e.Album,
			strconv.Itoa(e.DurationMS / 1000),
			e.State.String(),
			matchID,
			uri,
			strconv.Itoa(len(e.Candidates)),
			e.Error,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts p to a Markdown document with a status summary and track list.
func ExportToMarkdown(p models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", displayName(p))
	fmt.Fprintf(&buf, "**Tracks**: %d\n", p.Len())
	fmt.Fprintf(&buf, "**Duration**: %s\n", shared.FormatDuration(p.DurationMS()))
	fmt.Fprintf(&buf, "**Status**: %s\n\n", statusLine(p))

	buf.WriteString("## Tracks\n\n")
	for i, e := range p.Entries {
		albumPart := ""
		if e.Album != "" && e.Album != models.UnknownAlbum {
			albumPart = fmt.Sprintf(" (%s)", e.Album)
		}
		fmt.Fprintf(&buf, "%d. `%s` %s - %s%s [%s]", i+1, Marker(e.State), e.Artist, e.Name, albumPart, shared.FormatDuration(e.DurationMS))
		if e.Match != nil && e.Match.ExternalURL != "" {
			fmt.Fprintf(&buf, " ([open](%s))", e.Match.ExternalURL)
		}
		if e.Error != "" {
			fmt.Fprintf(&buf, " _%s_", e.Error)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts p to plain text, one entry per line with its id for use in later commands.
func ExportToText(p models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", displayName(p))
	fmt.Fprintf(&buf, "Tracks: %d (%s)\n", p.Len(), shared.FormatDuration(p.DurationMS()))
	fmt.Fprintf(&buf, "Status: %s\n\n", statusLine(p))

	for i, e := range p.Entries {
		fmt.Fprintf(&buf, "%d. %s %s - %s  (%s)", i+1, Marker(e.State), e.Artist, e.Name, e.ID)
		switch {
		case e.Error != "":
			fmt.Fprintf(&buf, "  %s", e.Error)
		case e.State == models.NeedsSelection:
			fmt.Fprintf(&buf, "  %d candidates", len(e.Candidates))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes p with entries, states and candidates.
func ExportToJSON(p models.Playlist) ([]byte, error) {
	return shared.MarshalJSON(p, true)
}

// WriteExport renders p to format f at path.
//
// Defaults to {slug of the playlist name}.{extension} as the filename.
func WriteExport(p models.Playlist, f Format, path string) (string, error) {
	if path == "" {
		base := playlist.Slug(p.Name)
		if base == "" {
			base = "playlist"
		}
		path = base + "." + f.Extension()
	}

	data, err := Render(p, f)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", f, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

func displayName(p models.Playlist) string {
	if p.Name == "" {
		return "Untitled"
	}
	return p.Name
}

func statusLine(p models.Playlist) string {
	counts := p.Counts()
	order := []models.ValidationState{models.Validated, models.NeedsSelection, models.Error, models.Validating, models.Unvalidated}

	var parts []string
	for _, s := range order {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, s))
		}
	}
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, ", ")
}
