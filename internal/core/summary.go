package core

import (
	"sort"
	"time"
)

// SectionFigures is the figure list of one section, as rendered on a page.
type SectionFigures struct {
	Section Section
	Figures []Figure
}

// LatestAsOf returns the most recent as-of time, or the zero time.
func (s SectionFigures) LatestAsOf() time.Time {
	var latest time.Time
	for _, f := range s.Figures {
		if f.AsOf.After(latest) {
			latest = f.AsOf
		}
	}
	return latest
}

// SortFigures orders figures by section, then key, in place.
func SortFigures(figs []Figure) {
	order := make(map[Section]int, len(Sections))
	for i, s := range Sections {
		order[s] = i
	}
	sort.SliceStable(figs, func(i, j int) bool {
		if figs[i].Section != figs[j].Section {
			return order[figs[i].Section] < order[figs[j].Section]
		}
		return figs[i].Key < figs[j].Key
	})
}
