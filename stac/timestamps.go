// stac/timestamps.go
package stac

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/geoharvest/stacsync/models"
)

// Timestamps is the temporal placement of an item: its start and end times
// plus the date token embedded in the item ID.
type Timestamps struct {
	Start     time.Time
	End       time.Time
	DateToken string
}

// LastModifiedProber answers the one timestamp question that cannot be
// derived from paths and labels: when was this file last modified. It is the
// only fallible, non-deterministic dependency of the resolver, kept behind an
// interface so everything else stays pure.
type LastModifiedProber interface {
	LastModified(path string) (time.Time, error)
}

// Resolver derives item timestamps from a file path, its dataset row and the
// optional index label.
type Resolver struct {
	Prober LastModifiedProber
}

// Resolve applies the dataset conventions in a fixed priority order. The
// order is load-bearing: a dataset can satisfy several predicates, and the
// first matching branch decides.
//
//  1. live-modification datasets ask the prober
//  2. decade placeholders pin 1920-1930
//  3. a parenthesized year in the label wins over everything below
//  4. the "(-)" placeholder label falls back to the dataset year range
//  5. a single-year dataset uses its year directly
//  6. snow-load filenames carry the span in their last eight digits
//  7. prediction year columns are split after stripping annotations
//  8. monthly aggregates read a YYYYMM token from the filename
//  9. otherwise a year is searched in the path, guarded against collection
//     IDs that contain a year themselves, with the dataset year range as the
//     final fallback
func (r *Resolver) Resolve(path string, ds models.DatasetDescriptor, label string) (Timestamps, error) {
	labelYear, labelHasYear := YearInLabel(label)

	switch {
	case ds.Family == models.FamilyElevationLive:
		if r.Prober == nil {
			return Timestamps{}, fmt.Errorf("dataset %s needs a last-modified prober", ds.StacID)
		}
		modified, err := r.Prober.LastModified(path)
		if err != nil {
			return Timestamps{}, fmt.Errorf("last-modified probe for %s: %w", path, err)
		}
		return Timestamps{
			Start:     modified,
			End:       modified,
			DateToken: strconv.Itoa(modified.Year()),
		}, nil

	case ds.Family == models.FamilyDecadeTopographic:
		return Timestamps{
			Start:     time.Date(1920, 1, 1, 0, 0, 0, 0, time.UTC),
			End:       time.Date(1930, 12, 31, 0, 0, 0, 0, time.UTC),
			DateToken: "1920_1930",
		}, nil

	case labelHasYear:
		return yearSpan(labelYear, labelYear, labelYear)

	case strings.Contains(label, "(-)") && ds.OrgName == models.OrgNationalLandSurvey:
		// Blank label: the year of this sheet is unknown, use the dataset's
		// declared range.
		return rangeSpan(ds.YearField)

	case !strings.Contains(ds.YearField, "-"):
		year := strings.TrimSpace(ds.YearField)
		return yearSpan(year, year, year)

	case ds.Family == models.FamilySnowLoad:
		// Filenames are rcp<scenario><startyear><endyear>.
		stem := FileStem(path)
		if len(stem) < 8 {
			return Timestamps{}, fmt.Errorf("snow-load filename %q too short for a year span", stem)
		}
		start := stem[len(stem)-8 : len(stem)-4]
		end := stem[len(stem)-4:]
		return yearSpan(start, end, start+"_"+end)

	case ds.Family == models.FamilyPredictions || ds.Family == models.FamilyMonthlyPredictions:
		return rangeSpan(ds.YearField)

	case ds.Family == models.FamilyMonthlyAggregate:
		return monthSpan(path)

	default:
		if year, ok := YearInPath(path); ok && ds.Family != models.FamilySpectre {
			// A collection ID containing the matched year (e.g. a "1990s"
			// collection) means the path year is a false positive.
			if !strings.Contains(ds.StacID, year) {
				return yearSpan(year, year, year)
			}
		}
		return rangeSpan(ds.YearField)
	}
}

// yearSpan expands calendar years into a January 1 .. December 31 interval.
func yearSpan(startYear, endYear, token string) (Timestamps, error) {
	start, err := strconv.Atoi(startYear)
	if err != nil {
		return Timestamps{}, fmt.Errorf("invalid start year %q: %w", startYear, err)
	}
	end, err := strconv.Atoi(endYear)
	if err != nil {
		return Timestamps{}, fmt.Errorf("invalid end year %q: %w", endYear, err)
	}
	return Timestamps{
		Start:     time.Date(start, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(end, 12, 31, 0, 0, 0, 0, time.UTC),
		DateToken: token,
	}, nil
}

// rangeSpan parses the dataset year column. Legal shapes are "1998",
// "1998-2005", "1998->" and "1998-2005 (partial)".
func rangeSpan(yearField string) (Timestamps, error) {
	start, end, token, err := SplitYearRange(yearField)
	if err != nil {
		return Timestamps{}, err
	}
	return yearSpan(start, end, token)
}

// SplitYearRange normalizes a year column into start and end years and the
// date token they produce. Open-ended ranges ("1998->") collapse to their
// first year; trailing parenthesized annotations are stripped.
func SplitYearRange(yearField string) (start, end, token string, err error) {
	if !strings.Contains(yearField, "-") {
		year := strings.TrimSpace(yearField)
		return year, year, year, nil
	}
	parts := strings.SplitN(yearField, "-", 2)
	start = strings.TrimSpace(parts[0])
	end = parts[1]
	if i := strings.Index(end, "("); i >= 0 {
		end = end[:i]
	}
	end = strings.TrimSpace(end)
	if end == ">" {
		// Updated regularly: anchor on the first year, later runs extend the
		// extent from actual items.
		return start, start, start, nil
	}
	return start, end, start + "_" + end, nil
}

// monthSpan reads a YYYYMM token from the filename and expands it to the
// first and last day of that month.
func monthSpan(path string) (Timestamps, error) {
	token, ok := NumericToken(path)
	if !ok {
		return Timestamps{}, fmt.Errorf("no numeric month token in %q", FileStem(path))
	}
	start, err := time.Parse("200601", token)
	if err != nil {
		return Timestamps{}, fmt.Errorf("month token %q is not YYYYMM: %w", token, err)
	}
	// Jump past the end of the month, then walk back to its last day. This
	// handles 28/29/30/31-day months and leap years alike.
	next := start.AddDate(0, 0, 32)
	lastDay := next.AddDate(0, 0, -next.Day()).Day()
	return Timestamps{
		Start:     start,
		End:       time.Date(start.Year(), start.Month(), lastDay, 0, 0, 0, 0, time.UTC),
		DateToken: token,
	}, nil
}
