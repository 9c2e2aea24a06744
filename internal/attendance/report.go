package attendance

import "qrattendance/internal/model"

// DailyRow pairs a student with their presence on a given date. Absence is
// computed, never stored: a student is absent iff no record exists for the
// date.
type DailyRow struct {
	Student model.Student `json:"student"`
	Present bool          `json:"present"`
	Time    string        `json:"time,omitempty"` // from the first record of the day
}

// Summary aggregates a daily report. Percent is zero when Total is zero.
type Summary struct {
	Date    string  `json:"date"`
	Class   string  `json:"class,omitempty"`
	Present int     `json:"present"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// Daily builds the per-date, per-class presence table. class == "" means all
// classes. Recomputed from the store on every call, no caching.
func (s *Service) Daily(date, class string) []DailyRow {
	rows := []DailyRow{}
	for _, st := range s.store.ListStudents() {
		if class != "" && st.Class != class {
			continue
		}
		row := DailyRow{Student: st}
		if rec, ok := s.store.RecordFor(st.ID, date); ok {
			row.Present = true
			row.Time = rec.Time
		}
		rows = append(rows, row)
	}
	return rows
}

// Summarize counts presence over the daily table.
func (s *Service) Summarize(date, class string) Summary {
	sum := Summary{Date: date, Class: class}
	for _, row := range s.Daily(date, class) {
		sum.Total++
		if row.Present {
			sum.Present++
		}
	}
	if sum.Total > 0 {
		sum.Percent = float64(sum.Present) / float64(sum.Total) * 100
	}
	return sum
}

// Recent returns the most recent n records in reverse insertion order.
func (s *Service) Recent(n int) []model.Record {
	all := s.store.ListRecords()
	if n <= 0 || n > len(all) {
		n = len(all)
	}
	out := make([]model.Record, 0, n)
	for i := len(all) - 1; i >= len(all)-n; i-- {
		out = append(out, all[i])
	}
	return out
}
