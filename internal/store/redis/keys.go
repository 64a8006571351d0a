package redis

const (
	// KeyPrefixStudent is the prefix for student records, keyed by ID
	KeyPrefixStudent = "rollcall:student:"
	// KeyPrefixDomain is the prefix for domain records, keyed by name
	KeyPrefixDomain = "rollcall:domain:"
	// KeyPrefixSchedule is the prefix for schedule rows, keyed by roll number
	KeyPrefixSchedule = "rollcall:schedule:"

	// KeyAllStudents is the set of all student IDs
	KeyAllStudents = "rollcall:students:all"
	// KeyStudentsByRoll is the hash of roll number -> student ID
	KeyStudentsByRoll = "rollcall:students:by_roll"
	// KeyAllDomains is the set of all domain names
	KeyAllDomains = "rollcall:domains:all"
	// KeyAllSchedule is the set of all roll numbers with a schedule row
	KeyAllSchedule = "rollcall:schedule:all"
)

// StudentKey returns the Redis key for a student by ID
func StudentKey(id string) string {
	return KeyPrefixStudent + id
}

// DomainKey returns the Redis key for a domain by name
func DomainKey(name string) string {
	return KeyPrefixDomain + name
}

// ScheduleKey returns the Redis key for a schedule row by roll number
func ScheduleKey(rollNo string) string {
	return KeyPrefixSchedule + rollNo
}

func keys(prefix string, ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = prefix + id
	}
	return out
}
