package domain

// Student is a person enrolled in one or more activity domains.
//
// A Student is uniquely identified by ID for admin edits and by RollNo
// for public lookups.
type Student struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is the opaque admin-facing identifier.
	ID string `json:"id" yaml:"id"`

	// RollNo is the public lookup key. It MUST be unique across students.
	// Matching is exact and case-sensitive.
	RollNo string `json:"rollNo" yaml:"rollNo"`

	// ─────────────────────────────
	// Profile
	// ─────────────────────────────

	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`

	// ─────────────────────────────
	// Assignments
	// ─────────────────────────────

	// Domains lists the assigned domain names in display order.
	// Position i is paired with ScheduleItem.Times[i] when resolving.
	Domains []string `json:"domains" yaml:"domains"`
}

// StudentPatch carries a partial student for upserts.
// A nil field is left untouched when merging into an existing record.
type StudentPatch struct {
	ID      string    `json:"id"`
	Name    *string   `json:"name,omitempty"`
	RollNo  *string   `json:"rollNo,omitempty"`
	Email   *string   `json:"email,omitempty"`
	Domains *[]string `json:"domains,omitempty"`
}

// Apply shallow-merges the provided fields of p into s and returns the result.
// s is not modified.
func (p StudentPatch) Apply(s Student) Student {
	out := s
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.RollNo != nil {
		out.RollNo = *p.RollNo
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.Domains != nil {
		out.Domains = append([]string(nil), (*p.Domains)...)
	}
	if out.Domains == nil {
		out.Domains = []string{}
	}
	return out
}

// Domain is an activity track with its own admin credential and meeting link.
type Domain struct {
	// Name is unique and is the only key used for meet link resolution.
	Name string `json:"name" yaml:"name"`

	// Password is the per-domain admin credential. Plaintext or a bcrypt hash.
	Password string `json:"password" yaml:"password"`

	// MeetLink may be empty until the domain admin sets it.
	MeetLink string `json:"meetLink" yaml:"meetLink"`
}

// DomainView is the public projection of a Domain, without its password.
type DomainView struct {
	Name     string `json:"name"`
	MeetLink string `json:"meetLink"`
}

// View strips the credential from d.
func (d Domain) View() DomainView {
	return DomainView{Name: d.Name, MeetLink: d.MeetLink}
}

// ScheduleItem is the imported list of free-text time slots for one student.
type ScheduleItem struct {
	RollNo string `json:"rollNo" yaml:"rollNo"`
	Name   string `json:"name" yaml:"name"`

	// RawLine is the unparsed source text, kept for diagnostics only.
	RawLine string `json:"rawLine" yaml:"rawLine"`

	Times []string `json:"times" yaml:"times"`
}
