package tasks

import (
	"fmt"

	"github.com/desertthunder/trackdown/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ExtractMetadata Phase = iota
	NormalizeTitle
	SearchCatalogs
	AddToLibrary
	RecordResult
	BatchItem
)

func (p Phase) String() string {
	switch p {
	case ExtractMetadata:
		return "extract_metadata"
	case NormalizeTitle:
		return "normalize_title"
	case SearchCatalogs:
		return "search_catalogs"
	case AddToLibrary:
		return "add_to_library"
	case RecordResult:
		return "record_result"
	case BatchItem:
		return "batch_item"
	default:
		return ""
	}
}

func extractingUpdate(input string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExtractMetadata,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching metadata for %s...", input),
	}
}

func normalizedUpdate(query models.ParsedQuery) ProgressUpdate {
	message := fmt.Sprintf("Could not split %q, searching raw title", query.RawTitle)
	if query.HasStructured() {
		message = fmt.Sprintf("Parsed: %s - %s", query.Artist, query.Song)
	}
	return ProgressUpdate{
		Phase:   NormalizeTitle,
		Step:    1,
		Total:   1,
		Message: message,
	}
}

func searchingUpdate(query models.ParsedQuery) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchCatalogs,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Searching catalogs for %q...", query.QueryText()),
	}
}

func matchedUpdate(found *models.SearchMatch) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchCatalogs,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Matched: %s - %s on %s (%.2f)", found.Track.Artist, found.Track.Song, found.Provider, found.Confidence),
		Data:    found,
	}
}

func addingUpdate(found *models.SearchMatch) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddToLibrary,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Adding %s - %s to %s library...", found.Track.Artist, found.Track.Song, found.Provider),
	}
}

func recordedUpdate(res *models.Resolution) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordResult,
		Step:    1,
		Total:   1,
		Message: "Recorded resolution " + res.ID,
		Data:    res,
	}
}

func batchItemUpdate(step, total int, input string, matched bool) ProgressUpdate {
	mark := "✗"
	if matched {
		mark = "✓"
	}
	return ProgressUpdate{
		Phase:   BatchItem,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, input),
	}
}
