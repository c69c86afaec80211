// Package extract implements the per-row derivation rules for width and
// compound. Width falls back to the first digit run of the description and is
// range-validated; compound falls back to the additional description.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"csv-stock-merge/internal/csvio"
	"csv-stock-merge/internal/schema"

	"go.uber.org/zap"
)

// Notifier queues an outbound alert message.
type Notifier interface {
	AddMessage(ctx context.Context, message string)
}

var digitRunRe = regexp.MustCompile(`\d+`)

// WidthExtractor derives a validated numeric width for a row.
type WidthExtractor struct {
	MaxWidth float64
	notifier Notifier
	log      *zap.SugaredLogger
}

// NewWidthExtractor builds a width extractor with the configured upper bound.
func NewWidthExtractor(maxWidth int, notifier Notifier, log *zap.SugaredLogger) *WidthExtractor {
	return &WidthExtractor{MaxWidth: float64(maxWidth), notifier: notifier, log: log}
}

// Extract returns the row's width, or ok=false when no valid width can be
// derived. If the width cell already holds a number it wins even when the
// description also contains digits; otherwise the first contiguous digit run
// of the description is used. An out-of-range value yields ok=false and
// queues exactly one notification on g; a simply absent value yields ok=false
// silently.
func (e *WidthExtractor) Extract(ctx context.Context, row csvio.Row, g *errgroup.Group) (float64, bool) {
	var value float64
	found := false

	if cell, ok := row[schema.Width]; ok {
		if n, err := strconv.ParseFloat(cell, 64); err == nil {
			value, found = n, true
		}
	}
	if !found {
		if desc, ok := row[schema.Description]; ok && desc != "" {
			if run := digitRunRe.FindString(desc); run != "" {
				if n, err := strconv.ParseFloat(run, 64); err == nil {
					value, found = n, true
				}
			}
		}
	}
	if !found {
		return 0, false
	}

	if value <= 0 || value > e.MaxWidth {
		message := fmt.Sprintf(
			"*For product:* `%s` the width value `%v` was outside the acceptable range.\n\n*Source:* `%s`",
			row[schema.Barcode], value, row[schema.SourceFile])
		e.log.Warn(stripMarkup(message))
		g.Go(func() error {
			e.notifier.AddMessage(ctx, "️🟥 "+message)
			return nil
		})
		return 0, false
	}
	return value, true
}

// CompoundExtractor derives the compound/material string for a row.
type CompoundExtractor struct{}

// Extract returns the upper-cased compound, falling back to the additional
// description. No validation, no side effects.
func (CompoundExtractor) Extract(row csvio.Row) (string, bool) {
	if v, ok := row[schema.Compound]; ok && v != "" {
		return strings.ToUpper(v), true
	}
	if v, ok := row[schema.AdditionalDescription]; ok && v != "" {
		return strings.ToUpper(v), true
	}
	return "", false
}

func stripMarkup(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}
