package timeline

import (
	"fmt"
	"sort"
	"time"

	"shopfloor/internal/storage"
)

type Level string

const (
	LevelOrder    Level = "order"
	LevelMO       Level = "mo"
	LevelJobsheet Level = "jobsheet"
	LevelTask     Level = "task"
)

// Entry: одна полоса диаграммы Ганта.
type Entry struct {
	ID              string    `json:"id"`
	Label           string    `json:"label"`
	Level           Level     `json:"level"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	ProgressPercent int       `json:"progress_percent"`
	Status          string    `json:"status"`
	Parent          string    `json:"parent,omitempty"`
	Ancestors       []string  `json:"ancestors"`
	OrderID         int64     `json:"order_id"`
	MOID            int64     `json:"mo_id,omitempty"`
	JobsheetID      int64     `json:"jobsheet_id,omitempty"`
}

// Снимок иерархии одного заказа.
type OrderTree struct {
	Order *storage.Order `json:"order"`
	MOs   []MOTree       `json:"mos"`
}

type MOTree struct {
	MO        *storage.ManufacturingOrder `json:"mo"`
	Jobsheets []JobsheetTree              `json:"jobsheets"`
}

type JobsheetTree struct {
	Jobsheet *storage.Jobsheet `json:"jobsheet"`
	Tasks    []*storage.Task   `json:"tasks"`
}

func EntryID(level Level, id int64) string {
	return fmt.Sprintf("%s-%d", level, id)
}

// Flatten раскладывает снимок в одну последовательность, отсортированную по началу.
// Сущности без начала или конца пропускаются. Порядок равных по началу сохраняется.
func Flatten(trees []OrderTree) []Entry {
	entries := make([]Entry, 0)

	for _, ot := range trees {
		o := ot.Order
		if o == nil {
			continue
		}
		orderKey := EntryID(LevelOrder, o.ID)

		if start, end, ok := window(o.PlannedStartDate, o.PlannedEndDate); ok {
			entries = append(entries, Entry{
				ID:              orderKey,
				Label:           orderLabel(o),
				Level:           LevelOrder,
				Start:           start,
				End:             end,
				ProgressPercent: o.ProgressPercent,
				Status:          string(o.Status),
				Ancestors:       []string{},
				OrderID:         o.ID,
			})
		}

		for _, mt := range ot.MOs {
			mo := mt.MO
			if mo == nil {
				continue
			}
			moKey := EntryID(LevelMO, mo.ID)

			if start, end, ok := window(mo.PlannedStartDate, mo.PlannedEndDate); ok {
				entries = append(entries, Entry{
					ID:              moKey,
					Label:           mo.Number,
					Level:           LevelMO,
					Start:           start,
					End:             end,
					ProgressPercent: mo.ProgressPercent,
					Status:          string(mo.Status),
					Parent:          orderKey,
					Ancestors:       []string{orderKey},
					OrderID:         o.ID,
					MOID:            mo.ID,
				})
			}

			for _, jt := range mt.Jobsheets {
				js := jt.Jobsheet
				if js == nil {
					continue
				}
				jsKey := EntryID(LevelJobsheet, js.ID)

				if start, end, ok := window(js.PlannedStartDate, js.PlannedEndDate); ok {
					entries = append(entries, Entry{
						ID:              jsKey,
						Label:           js.Number,
						Level:           LevelJobsheet,
						Start:           start,
						End:             end,
						ProgressPercent: js.ProgressPercent,
						Status:          string(js.Status),
						Parent:          moKey,
						Ancestors:       []string{orderKey, moKey},
						OrderID:         o.ID,
						MOID:            mo.ID,
						JobsheetID:      js.ID,
					})
				}

				for _, t := range jt.Tasks {
					if t == nil {
						continue
					}

					start, end, ok := taskWindow(t, js)
					if !ok {
						continue
					}

					entries = append(entries, Entry{
						ID:              EntryID(LevelTask, t.ID),
						Label:           t.Name,
						Level:           LevelTask,
						Start:           start,
						End:             end,
						ProgressPercent: t.ProgressPercent,
						Status:          string(t.Status),
						Parent:          jsKey,
						Ancestors:       []string{orderKey, moKey, jsKey},
						OrderID:         o.ID,
						MOID:            mo.ID,
						JobsheetID:      js.ID,
					})
				}
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Start.Before(entries[j].Start)
	})

	return entries
}

// window отдаёт пару только целиком; конец не раньше начала.
func window(start, end *time.Time) (time.Time, time.Time, bool) {
	if start == nil || end == nil {
		return time.Time{}, time.Time{}, false
	}
	if end.Before(*start) {
		return *start, *start, true
	}
	return *start, *end, true
}

// taskWindow выбирает окно задачи парой: сессия, затем план задачи, затем план наряда.
// Открытая сессия тянется до плановой даты окончания, но не раньше своего начала.
func taskWindow(t *storage.Task, js *storage.Jobsheet) (time.Time, time.Time, bool) {
	if t.ClockedInAt != nil {
		end := t.ClockedOutAt
		if end == nil {
			end = t.PlannedEndDate
		}
		if end == nil {
			end = js.PlannedEndDate
		}
		if end == nil {
			end = t.ClockedInAt
		}
		return window(t.ClockedInAt, end)
	}

	if t.PlannedStartDate != nil && t.PlannedEndDate != nil {
		return window(t.PlannedStartDate, t.PlannedEndDate)
	}

	return window(js.PlannedStartDate, js.PlannedEndDate)
}

func orderLabel(o *storage.Order) string {
	if o.Customer == "" {
		return o.Number
	}
	return o.Number + " · " + o.Customer
}
