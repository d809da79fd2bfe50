package progress

import (
	"math"

	"shopfloor/internal/storage"
)

// JobsheetProgress: процент готовности наряда, взвешенный по плановым часам задач.
// Если часов нет ни у одной задачи, берётся простое среднее.
func JobsheetProgress(tasks []*storage.Task) int {
	var (
		count        int
		sum          float64
		weighted     float64
		totalPlanned float64
	)

	for _, t := range tasks {
		if t == nil {
			continue
		}
		count++

		p := float64(Clamp(t.ProgressPercent))
		h := plannedHours(t)

		sum += p
		weighted += p * h
		totalPlanned += h
	}

	if count == 0 {
		return 0
	}

	if totalPlanned == 0 {
		return RoundHalfUp(sum / float64(count))
	}

	return RoundHalfUp(weighted / totalPlanned)
}

// MOProgress: невзвешенное среднее по нарядам.
func MOProgress(jobsheets []*storage.Jobsheet) int {
	values := make([]int, 0, len(jobsheets))
	for _, js := range jobsheets {
		if js != nil {
			values = append(values, js.ProgressPercent)
		}
	}
	return mean(values)
}

// OrderProgress: невзвешенное среднее по MO.
func OrderProgress(mos []*storage.ManufacturingOrder) int {
	values := make([]int, 0, len(mos))
	for _, mo := range mos {
		if mo != nil {
			values = append(values, mo.ProgressPercent)
		}
	}
	return mean(values)
}

// RoundHalfUp округляет до целого (0.5 вверх) и зажимает в [0, 100].
func RoundHalfUp(x float64) int {
	if math.IsNaN(x) {
		return 0
	}
	return Clamp(int(math.Floor(x + 0.5)))
}

func Clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func mean(values []int) int {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += float64(Clamp(v))
	}

	return RoundHalfUp(sum / float64(len(values)))
}

func plannedHours(t *storage.Task) float64 {
	if t.PlannedHours == nil || *t.PlannedHours < 0 {
		return 0
	}
	return *t.PlannedHours
}
