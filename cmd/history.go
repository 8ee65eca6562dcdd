package main

import (
	"context"

	"github.com/desertthunder/trackdown/internal/formatter"
	"github.com/desertthunder/trackdown/internal/models"
	"github.com/urfave/cli/v3"
)

// History prints the resolution log.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	s, err := r.buildStack(true)
	if err != nil {
		return err
	}
	defer s.Close()

	if cmd.Bool("stats") {
		total, matched, err := s.repo.Count()
		if err != nil {
			return err
		}
		r.writePlain("Total resolutions: %d\n", total)
		r.writePlain("Matched: %d\n", matched)
		r.writePlain("Unmatched: %d\n", total-matched)
		return nil
	}

	limit := cmd.Int("limit")

	var rows []*models.Resolution
	if cmd.Bool("matched") {
		rows, err = s.repo.ListMatched(limit)
	} else {
		rows, err = s.repo.List(limit)
	}
	if err != nil {
		return err
	}

	output, err := formatter.FormatHistory(rows, cmd.String("format"))
	if err != nil {
		return err
	}

	return r.writePlain("%s", string(output))
}
