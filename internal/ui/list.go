package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/trackdown/internal/models"
)

var _ list.Item = resolutionItem{}

// resolutionItem wraps [models.Resolution] to implement [list.Item].
type resolutionItem struct {
	resolution *models.Resolution
}

func (i resolutionItem) FilterValue() string { return i.resolution.RawTitle }

func (i resolutionItem) Title() string {
	if i.resolution.Matched {
		return fmt.Sprintf("%s - %s", i.resolution.Artist, i.resolution.Song)
	}
	return i.resolution.RawTitle
}

func (i resolutionItem) Description() string {
	if !i.resolution.Matched {
		return fmt.Sprintf("no match • %s", i.resolution.CreatedAt.Format("2006-01-02 15:04"))
	}

	desc := fmt.Sprintf("%s • %.2f • %s", i.resolution.Provider, i.resolution.Confidence,
		i.resolution.CreatedAt.Format("2006-01-02 15:04"))
	if i.resolution.Added {
		desc += " • added"
	}
	return desc
}
