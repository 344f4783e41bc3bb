// Package departments is the department directory: seeded reference data
// with search, status filter and sort.
package departments

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pliu/instamunicipal/internal/models"
	"github.com/pliu/instamunicipal/internal/store"
)

type StatusFilter string

const (
	StatusAll      StatusFilter = "all"
	StatusActive   StatusFilter = "active"
	StatusInactive StatusFilter = "inactive"
)

type SortKey string

const (
	SortName    SortKey = "name"
	SortRecent  SortKey = "recent"
	SortMembers SortKey = "members"
)

// FilterAndSort returns a new slice; depts is not modified.
func FilterAndSort(depts []models.Department, query string, status StatusFilter, key SortKey) []models.Department {
	q := strings.ToLower(query)
	out := make([]models.Department, 0, len(depts))
	for _, d := range depts {
		if q != "" && !strings.Contains(strings.ToLower(d.Name), q) && !strings.Contains(strings.ToLower(d.Description), q) {
			continue
		}
		switch status {
		case StatusActive:
			if !d.IsActive {
				continue
			}
		case StatusInactive:
			if d.IsActive {
				continue
			}
		}
		out = append(out, d)
	}

	switch key {
	case SortName:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	case SortRecent:
		// compares the human readable label ("2 hours ago"), not a time
		sort.SliceStable(out, func(i, j int) bool { return out[i].RecentActivity.Time < out[j].RecentActivity.Time })
	case SortMembers:
		sort.SliceStable(out, func(i, j int) bool { return out[i].MemberCount > out[j].MemberCount })
	}
	return out
}

// TotalUnread sums the unread counters of all departments.
func TotalUnread(depts []models.Department) int {
	total := 0
	for _, d := range depts {
		total += d.UnreadCount
	}
	return total
}

// Directory reads departments from the backend.
type Directory struct {
	store store.Store
}

func NewDirectory(s store.Store) *Directory {
	return &Directory{store: s}
}

// Seed inserts the default departments when the table is empty.
func (d *Directory) Seed(ctx context.Context) error {
	existing, err := d.store.ListDepartments(ctx)
	if err != nil {
		return fmt.Errorf("list departments: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, dept := range Defaults() {
		if err := d.store.SaveDepartment(ctx, dept); err != nil {
			return fmt.Errorf("seed department %s: %w", dept.ID, err)
		}
	}
	return nil
}

func (d *Directory) List(ctx context.Context) ([]models.Department, error) {
	depts, err := d.store.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}
	if len(depts) == 0 {
		return Defaults(), nil
	}
	return depts, nil
}

// Refs returns the id/name pairs offered by the post composer.
func (d *Directory) Refs(ctx context.Context) ([]models.DepartmentRef, error) {
	depts, err := d.List(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]models.DepartmentRef, 0, len(depts))
	for _, dept := range depts {
		refs = append(refs, *dept.Ref())
	}
	return refs, nil
}

// Name maps a department id to its display name, falling back to the id.
func Name(id string) string {
	for _, d := range Defaults() {
		if d.ID == id {
			return d.Name
		}
	}
	return id
}
