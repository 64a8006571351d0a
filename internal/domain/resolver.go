package domain

import (
	"strings"
	"unicode"
)

// FallbackMeetBase is used to build a join URL for a domain that has a time
// slot but no explicit meet link.
const FallbackMeetBase = "https://meet.google.com/lookup/"

// ResolvedAssignment is one display-ready row of a student's schedule.
// Empty TimeSlot or MeetLink means the value is not known yet.
type ResolvedAssignment struct {
	Domain   string `json:"domain"`
	TimeSlot string `json:"timeSlot,omitempty"`
	MeetLink string `json:"meetLink,omitempty"`
	JoinURL  string `json:"joinURL,omitempty"`
	Joinable bool   `json:"joinable"`
}

// Resolve pairs each of the student's domains with a time slot and a meet link.
//
// Times are paired by position: domains[i] gets times[i] when it exists.
// Links are looked up by exact domain name. An entry is joinable when it has
// a link or a time slot. The result always has len(student.Domains) entries
// in the student's order. schedule may be nil.
func Resolve(student Student, schedule *ScheduleItem, domains []Domain) []ResolvedAssignment {
	var times []string
	if schedule != nil && schedule.RollNo == student.RollNo {
		times = schedule.Times
	}

	links := make(map[string]string, len(domains))
	for _, d := range domains {
		// first record wins on duplicate names
		if _, ok := links[d.Name]; !ok {
			links[d.Name] = d.MeetLink
		}
	}

	out := make([]ResolvedAssignment, 0, len(student.Domains))
	for i, name := range student.Domains {
		a := ResolvedAssignment{Domain: name}
		if i < len(times) {
			a.TimeSlot = times[i]
		}
		a.MeetLink = links[name]
		a.Joinable = a.MeetLink != "" || a.TimeSlot != ""

		switch {
		case a.MeetLink != "":
			a.JoinURL = a.MeetLink
		case a.Joinable:
			a.JoinURL = FallbackMeetBase + Slug(name)
		}

		out = append(out, a)
	}
	return out
}

// Slug lower-cases name and replaces each run of whitespace with a dash.
// Example: "Video & Photo Editing" -> "video-&-photo-editing"
func Slug(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	inSpace := false
	for _, r := range name {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('-')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
