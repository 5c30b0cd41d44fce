package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"beesync/internal/core/datapoint"
	"beesync/internal/core/daystamp"
)

// fakeLedger keeps entries in memory and pages them newest day first
type fakeLedger struct {
	mu       sync.Mutex
	entries  []datapoint.Entry
	nextID   int
	pages    []int
	fail     map[daystamp.Daystamp]error
	fetchErr error
	writes   []string
}

func (f *fakeLedger) add(d daystamp.Daystamp, v float64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("e%d", f.nextID)
	f.entries = append(f.entries, datapoint.Entry{ID: id, Daystamp: d, Value: v})
	return id
}

func (f *fakeLedger) sorted() []datapoint.Entry {
	out := slices.Clone(f.entries)
	slices.SortStableFunc(out, func(a, b datapoint.Entry) int { return b.Daystamp.Compare(a.Daystamp) })
	return out
}

func (f *fakeLedger) FetchEntries(_ context.Context, _, _ string, per, page int) ([]datapoint.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = append(f.pages, per)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	all := f.sorted()
	lo := (page - 1) * per
	if lo >= len(all) {
		return nil, nil
	}
	hi := min(lo+per, len(all))
	return slices.Clone(all[lo:hi]), nil
}

func (f *fakeLedger) CreateEntry(_ context.Context, _ string, c datapoint.Candidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[c.Daystamp]; err != nil {
		return err
	}
	f.nextID++
	f.entries = append(f.entries, datapoint.Entry{ID: fmt.Sprintf("e%d", f.nextID), Daystamp: c.Daystamp, Value: c.Value, Comment: c.Comment})
	f.writes = append(f.writes, "create "+c.Daystamp.String())
	return nil
}

func (f *fakeLedger) UpdateEntry(_ context.Context, _, id string, value float64, comment string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].ID == id {
			if err := f.fail[f.entries[i].Daystamp]; err != nil {
				return err
			}
			f.entries[i].Value = value
			f.entries[i].Comment = comment
			f.writes = append(f.writes, "update "+id)
			return nil
		}
	}
	return fmt.Errorf("no entry %s", id)
}

func (f *fakeLedger) DeleteEntry(_ context.Context, _, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries = slices.Delete(f.entries, i, i+1)
			f.writes = append(f.writes, "delete "+id)
			return nil
		}
	}
	return fmt.Errorf("no entry %s", id)
}

func (f *fakeLedger) onDay(d daystamp.Daystamp) []datapoint.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []datapoint.Entry
	for _, e := range f.entries {
		if e.Daystamp == d {
			out = append(out, e)
		}
	}
	return out
}
