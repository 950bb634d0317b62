package planner

import (
	"fmt"
	"sort"

	"biblos/internal/batch"
	"biblos/internal/store"
)

// Mode selects a plan-building strategy
type Mode string

const (
	// ModeSequential walks books in canonical order
	ModeSequential Mode = "sequential"
	// ModeByCategory groups work by book category, largest backlog first
	ModeByCategory Mode = "by_category"
	// ModeIncompleteFirst schedules partially processed books before
	// untouched ones
	ModeIncompleteFirst Mode = "incomplete_first"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSequential, ModeByCategory, ModeIncompleteFirst:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown plan mode %q (want sequential, by_category or incomplete_first)", s)
}

// Plan item kinds
const (
	KindBook     = "book"
	KindCategory = "category"
)

// Priority classes
const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
)

// PlanItem names one work group. VerseCount is the exact number of
// pending verses in the group at plan-build time.
type PlanItem struct {
	Kind       string
	Name       string
	VerseCount int
	Priority   string
}

// categoryPriority breaks backlog-size ties in by_category plans
var categoryPriority = []string{
	store.CategoryGospel,
	store.CategoryPentateuch,
	store.CategoryPauline,
	store.CategoryMajorProphet,
	store.CategoryPoetic,
	store.CategoryHistorical,
	store.CategoryMinorProphet,
	store.CategoryGeneralEpistle,
	store.CategoryApocalyptic,
	store.CategoryActs,
	store.CategoryDeuterocanon,
}

// Planner derives processing plans and work-item streams from the
// verse store. Plans are computed fresh on every call and go stale as
// soon as new data is ingested; re-derive on demand.
type Planner struct {
	store *store.Store
}

// New creates a planner over the given store
func New(s *store.Store) *Planner {
	return &Planner{store: s}
}

// CreatePlan builds an ordered plan for the given mode. Identical
// store state yields identical plans.
func (p *Planner) CreatePlan(mode Mode) ([]PlanItem, error) {
	switch mode {
	case ModeSequential:
		return p.sequentialPlan()
	case ModeByCategory:
		return p.byCategoryPlan()
	case ModeIncompleteFirst:
		return p.incompleteFirstPlan()
	}
	return nil, fmt.Errorf("unknown plan mode %q", mode)
}

func (p *Planner) sequentialPlan() ([]PlanItem, error) {
	backlogs, err := p.store.BookBacklogs()
	if err != nil {
		return nil, fmt.Errorf("failed to load book backlogs: %w", err)
	}

	var plan []PlanItem
	for _, b := range backlogs {
		plan = append(plan, PlanItem{
			Kind:       KindBook,
			Name:       b.Name,
			VerseCount: b.Pending,
			Priority:   PriorityNormal,
		})
	}
	return plan, nil
}

func (p *Planner) byCategoryPlan() ([]PlanItem, error) {
	var plan []PlanItem
	for _, category := range categoryPriority {
		count, err := p.store.CategoryBacklog(category)
		if err != nil {
			return nil, fmt.Errorf("failed to count category %s: %w", category, err)
		}
		if count == 0 {
			continue
		}

		priority := PriorityNormal
		if category == store.CategoryGospel || category == store.CategoryPentateuch {
			priority = PriorityHigh
		}

		plan = append(plan, PlanItem{
			Kind:       KindCategory,
			Name:       category,
			VerseCount: count,
			Priority:   priority,
		})
	}

	// Largest backlog first. The slice was built in categoryPriority
	// order, so a stable sort leaves ties in that order.
	sort.SliceStable(plan, func(i, j int) bool {
		return plan[i].VerseCount > plan[j].VerseCount
	})
	return plan, nil
}

func (p *Planner) incompleteFirstPlan() ([]PlanItem, error) {
	books, err := p.store.IncompleteBooks()
	if err != nil {
		return nil, fmt.Errorf("failed to load incomplete books: %w", err)
	}

	var plan []PlanItem
	started := make(map[string]bool, len(books))
	for _, b := range books {
		started[b.Name] = true
		plan = append(plan, PlanItem{
			Kind:       KindBook,
			Name:       b.Name,
			VerseCount: b.Pending,
			Priority:   PriorityHigh,
		})
	}

	// Untouched books follow in canonical order
	backlogs, err := p.store.BookBacklogs()
	if err != nil {
		return nil, fmt.Errorf("failed to load book backlogs: %w", err)
	}
	for _, b := range backlogs {
		if started[b.Name] {
			continue
		}
		plan = append(plan, PlanItem{
			Kind:       KindBook,
			Name:       b.Name,
			VerseCount: b.Pending,
			Priority:   PriorityNormal,
		})
	}
	return plan, nil
}

// WorkItems builds the deterministic work-item stream for one plan
// item's scope.
func (p *Planner) WorkItems(item PlanItem) ([]batch.WorkItem, error) {
	var scope store.Scope
	switch item.Kind {
	case KindBook:
		scope.Book = item.Name
	case KindCategory:
		scope.Category = item.Name
	default:
		return nil, fmt.Errorf("unknown plan item kind %q", item.Kind)
	}

	verses, err := p.store.PendingVerses(scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load verses for %s %s: %w", item.Kind, item.Name, err)
	}

	items := make([]batch.WorkItem, 0, len(verses))
	for _, v := range verses {
		items = append(items, batch.WorkItem{
			ID:       v.ID,
			Ref:      v.Ref,
			Book:     v.Book,
			Category: v.Category,
			Chapter:  v.Chapter,
			Verse:    v.VerseNumber,
			Priority: item.Priority,
		})
	}
	return items, nil
}

// AllWorkItems builds the stream for an explicit scope, outside any
// plan (the run command's --book / --category filters).
func (p *Planner) AllWorkItems(scope store.Scope) ([]batch.WorkItem, error) {
	verses, err := p.store.PendingVerses(scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending verses: %w", err)
	}

	items := make([]batch.WorkItem, 0, len(verses))
	for _, v := range verses {
		items = append(items, batch.WorkItem{
			ID:       v.ID,
			Ref:      v.Ref,
			Book:     v.Book,
			Category: v.Category,
			Chapter:  v.Chapter,
			Verse:    v.VerseNumber,
			Priority: PriorityNormal,
		})
	}
	return items, nil
}
