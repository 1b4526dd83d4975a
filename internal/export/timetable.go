package export

import (
	"io"

	"github.com/PioneersHub/pytanis-go/internal/schedule"
	"gopkg.in/yaml.v3"
)

// timetableDoc is the YAML shape of a dumped timetable: one entry per
// placed talk, grouped by day for readability.
type timetableDoc struct {
	Days []dayDoc `yaml:"days"`
}

type dayDoc struct {
	Day   int          `yaml:"day"`
	Talks []talkSlotDoc `yaml:"talks"`
}

type talkSlotDoc struct {
	Talk     string `yaml:"talk"`
	Session  int    `yaml:"session"`
	Position int    `yaml:"position"`
	Room     string `yaml:"room"`
	Length   int    `yaml:"length_min"`
}

// WriteTimetableYAML renders a Timetable as a human-inspectable YAML
// document, grouped by day, talks ordered by (session, position). This
// is a supplementary, human-inspectable dump, not an upload
// artifact but that the original tooling's maintainers would reach for
// when reviewing a solver's output by eye.
func WriteTimetableYAML(w io.Writer, t schedule.Timetable) error {
	byDay := map[int][]talkSlotDoc{}
	for _, e := range t.Entries {
		byDay[e.Slot.Day] = append(byDay[e.Slot.Day], talkSlotDoc{
			Talk:     string(e.Talk),
			Session:  e.Slot.Session,
			Position: e.Slot.Position,
			Room:     string(e.Slot.Room),
			Length:   e.Slot.LengthMin,
		})
	}

	doc := timetableDoc{}
	for day, talks := range byDay {
		sortTalkSlots(talks)
		doc.Days = append(doc.Days, dayDoc{Day: day, Talks: talks})
	}
	sortDays(doc.Days)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(doc)
}

func sortTalkSlots(talks []talkSlotDoc) {
	for i := 1; i < len(talks); i++ {
		for j := i; j > 0 && less(talks[j], talks[j-1]); j-- {
			talks[j], talks[j-1] = talks[j-1], talks[j]
		}
	}
}

func less(a, b talkSlotDoc) bool {
	if a.Session != b.Session {
		return a.Session < b.Session
	}
	return a.Position < b.Position
}

func sortDays(days []dayDoc) {
	for i := 1; i < len(days); i++ {
		for j := i; j > 0 && days[j].Day < days[j-1].Day; j-- {
			days[j], days[j-1] = days[j-1], days[j]
		}
	}
}
