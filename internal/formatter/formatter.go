// package formatter renders resolution results and history to various formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/desertthunder/trackdown/internal/models"
)

// FormatResolution renders a single resolution in the given format. Supported
// formats are "text", "json", "csv", and "markdown"; anything else errors.
func FormatResolution(res *models.Resolution, format string) ([]byte, error) {
	switch format {
	case "", "text":
		return resolutionToText(res), nil
	case "json":
		return resolutionToJSON(res)
	case "csv":
		return historyToCSV([]*models.Resolution{res})
	case "markdown", "md":
		return historyToMarkdown([]*models.Resolution{res}), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// FormatHistory renders a list of resolutions, newest first as given.
func FormatHistory(resolutions []*models.Resolution, format string) ([]byte, error) {
	switch format {
	case "", "text":
		return historyToText(resolutions), nil
	case "json":
		return json.MarshalIndent(resolutionRecords(resolutions), "", "  ")
	case "csv":
		return historyToCSV(resolutions)
	case "markdown", "md":
		return historyToMarkdown(resolutions), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// resolutionRecord is the stable JSON shape for a resolution row.
type resolutionRecord struct {
	ID         string  `json:"id"`
	RawTitle   string  `json:"raw_title"`
	Artist     string  `json:"artist,omitempty"`
	Song       string  `json:"song,omitempty"`
	Provider   string  `json:"provider,omitempty"`
	URI        string  `json:"uri,omitempty"`
	Confidence float64 `json:"confidence"`
	Matched    bool    `json:"matched"`
	Added      bool    `json:"added"`
	Enriched   bool    `json:"enriched"`
	CreatedAt  string  `json:"created_at"`
}

func toRecord(res *models.Resolution) resolutionRecord {
	return resolutionRecord{
		ID:         res.ID,
		RawTitle:   res.RawTitle,
		Artist:     res.Artist,
		Song:       res.Song,
		Provider:   res.Provider,
		URI:        res.URI,
		Confidence: res.Confidence,
		Matched:    res.Matched,
		Added:      res.Added,
		Enriched:   res.Enriched,
		CreatedAt:  res.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func resolutionRecords(resolutions []*models.Resolution) []resolutionRecord {
	records := make([]resolutionRecord, len(resolutions))
	for i, res := range resolutions {
		records[i] = toRecord(res)
	}
	return records
}

func resolutionToJSON(res *models.Resolution) ([]byte, error) {
	data, err := json.MarshalIndent(toRecord(res), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode resolution: %w", err)
	}
	return data, nil
}

func resolutionToText(res *models.Resolution) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Title: %s\n", res.RawTitle))
	if res.Matched {
		buf.WriteString(fmt.Sprintf("Match: %s - %s\n", res.Artist, res.Song))
		buf.WriteString(fmt.Sprintf("Provider: %s\n", res.Provider))
		buf.WriteString(fmt.Sprintf("URI: %s\n", res.URI))
		buf.WriteString(fmt.Sprintf("Confidence: %.2f\n", res.Confidence))
		if res.Enriched {
			buf.WriteString("Identified via enrichment\n")
		}
		if res.Added {
			buf.WriteString("Added to library\n")
		}
	} else {
		buf.WriteString("No confident match found\n")
	}

	return buf.Bytes()
}

func historyToText(resolutions []*models.Resolution) []byte {
	var buf bytes.Buffer

	if len(resolutions) == 0 {
		buf.WriteString("No resolutions recorded\n")
		return buf.Bytes()
	}

	for i, res := range resolutions {
		status := "miss"
		if res.Matched {
			status = fmt.Sprintf("%s - %s (%s, %.2f)", res.Artist, res.Song, res.Provider, res.Confidence)
		}
		buf.WriteString(fmt.Sprintf("%d. [%s] %s: %s\n",
			i+1, res.CreatedAt.Format("2006-01-02 15:04"), res.RawTitle, status))
	}

	return buf.Bytes()
}

func historyToCSV(resolutions []*models.Resolution) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Raw Title", "Artist", "Song", "Provider", "URI", "Confidence", "Matched", "Added", "Enriched", "Created At"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, res := range resolutions {
		record := []string{
			res.ID,
			res.RawTitle,
			res.Artist,
			res.Song,
			res.Provider,
			res.URI,
			strconv.FormatFloat(res.Confidence, 'f', 2, 64),
			strconv.FormatBool(res.Matched),
			strconv.FormatBool(res.Added),
			strconv.FormatBool(res.Enriched),
			res.CreatedAt.Format("2006-01-02 15:04:05"),
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

func historyToMarkdown(resolutions []*models.Resolution) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Resolution History\n\n")
	buf.WriteString(fmt.Sprintf("**Attempts**: %d\n\n", len(resolutions)))
	buf.WriteString("| Date | Title | Match | Provider | Confidence |\n")
	buf.WriteString("| --- | --- | --- | --- | --- |\n")

	for _, res := range resolutions {
		match := "-"
		provider := "-"
		if res.Matched {
			match = fmt.Sprintf("%s - %s", res.Artist, res.Song)
			provider = res.Provider
		}
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %.2f |\n",
			res.CreatedAt.Format("2006-01-02"), res.RawTitle, match, provider, res.Confidence))
	}

	return buf.Bytes()
}
