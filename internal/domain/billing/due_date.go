package billing

import "time"

// MinLeadDays anticipación mínima entre hoy y el vencimiento de un consolidado.
const MinLeadDays = 3

// NextConsolidatedDueDate próxima fecha con día dueDay (recortado al largo del mes)
// estrictamente posterior a hoy. Si queda a menos de MinLeadDays días, pasa al mes siguiente.
// Los días se cuentan en calendario civil: un cambio de horario no acorta la anticipación.
func NextConsolidatedDueDate(dueDay int, now time.Time) time.Time {
	if dueDay < 1 {
		dueDay = 1
	}
	if dueDay > 31 {
		dueDay = 31
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	candidate := dayInMonth(today.Year(), today.Month(), dueDay)
	if !candidate.After(today) {
		candidate = dayInMonth(today.Year(), today.Month()+1, dueDay)
	}
	if candidate.Before(today.AddDate(0, 0, MinLeadDays)) {
		candidate = dayInMonth(candidate.Year(), candidate.Month()+1, dueDay)
	}
	return time.Date(candidate.Year(), candidate.Month(), candidate.Day(), 0, 0, 0, 0, now.Location())
}

// dayInMonth fecha civil con el día recortado al último día del mes (31 en febrero → 28/29).
func dayInMonth(year int, month time.Month, day int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}
