package domain

import (
	"reflect"
	"testing"
)

func TestRenameDomains(t *testing.T) {
	from := []string{"Photography", "Videography"}
	to := "Video & Photo Editing"

	tests := []struct {
		name        string
		domains     []string
		expected    []string
		wantChanged bool
	}{
		{
			name:        "single retired domain",
			domains:     []string{"Music", "Photography"},
			expected:    []string{"Music", "Video & Photo Editing"},
			wantChanged: true,
		},
		{
			name:        "both retired domains collapse",
			domains:     []string{"Videography", "Music", "Photography"},
			expected:    []string{"Video & Photo Editing", "Music"},
			wantChanged: true,
		},
		{
			name:        "already has target",
			domains:     []string{"Video & Photo Editing", "Photography"},
			expected:    []string{"Video & Photo Editing"},
			wantChanged: true,
		},
		{
			name:        "untouched student",
			domains:     []string{"Music", "Music"},
			expected:    []string{"Music", "Music"},
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := RenameDomains(Student{RollNo: "1", Domains: tt.domains}, from, to)
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if !reflect.DeepEqual(got.Domains, tt.expected) {
				t.Errorf("domains = %v, want %v", got.Domains, tt.expected)
			}
		})
	}
}
