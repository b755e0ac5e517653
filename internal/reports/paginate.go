package reports

// DefaultPageCapacity is the number of activities per content page when none is configured.
const DefaultPageCapacity = 12

// Summary aggregates a report period.
type Summary struct {
	Period     Period  `json:"period"`
	Activities int     `json:"activities"`
	Meetings   int     `json:"meetings"`
	Events     int     `json:"events"`
	Cancelled  int     `json:"cancelled"`
	InPerson   int     `json:"in_person"`
	Online     int     `json:"online"`
	External   int     `json:"external"`
	Cost       float64 `json:"cost"`
	Investment float64 `json:"investment"`
	Revenue    float64 `json:"revenue"`
}

// Summarize totals acts.
func Summarize(acts []Activity, p Period) Summary {
	s := Summary{Period: p, Activities: len(acts)}
	for _, a := range acts {
		if a.Kind == KindEvent {
			s.Events++
		} else {
			s.Meetings++
		}
		if a.Cancelled {
			s.Cancelled++
		}
		s.InPerson += a.InPerson
		s.Online += a.Online
		s.External += a.External
		s.Cost += a.Cost
		s.Investment += a.Investment
		s.Revenue += a.Revenue
	}
	return s
}

// Page is one independently renderable report page. Page 0 carries the summary; the rest carry items.
type Page struct {
	Number  int        `json:"number"`
	Total   int        `json:"total"`
	Summary *Summary   `json:"summary,omitempty"`
	Items   []Activity `json:"items,omitempty"`
}

// Paginate splits acts into a summary page followed by pages of at most capacity items.
func Paginate(acts []Activity, capacity int, p Period) []Page {
	if capacity <= 0 {
		capacity = DefaultPageCapacity
	}
	content := (len(acts) + capacity - 1) / capacity
	total := content + 1

	summary := Summarize(acts, p)
	pages := make([]Page, 0, total)
	pages = append(pages, Page{Number: 0, Total: total, Summary: &summary})
	for i := 0; i < content; i++ {
		end := (i + 1) * capacity
		if end > len(acts) {
			end = len(acts)
		}
		pages = append(pages, Page{Number: i + 1, Total: total, Items: acts[i*capacity : end]})
	}
	return pages
}
