package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type rec struct {
	ID   string
	Name string
}

func (r rec) GetID() string { return r.ID }

func TestResolve_IncomingWins(t *testing.T) {
	assert.Equal(t, rec{"a", "new"}, Resolve(rec{"a", "old"}, rec{"a", "new"}))
}

func TestByID(t *testing.T) {
	tests := []struct {
		name    string
		base    []rec
		overlay []rec
		want    []rec
	}{
		{
			name: "empty",
			want: []rec{},
		},
		{
			name: "local only records survive",
			base: []rec{{"a", "local"}, {"b", "local"}},
			want: []rec{{"a", "local"}, {"b", "local"}},
		},
		{
			name:    "overlay replaces matching ids",
			base:    []rec{{"a", "local"}, {"b", "local"}},
			overlay: []rec{{"b", "remote"}},
			want:    []rec{{"a", "local"}, {"b", "remote"}},
		},
		{
			name:    "overlay only records appended",
			base:    []rec{{"a", "local"}},
			overlay: []rec{{"c", "remote"}, {"a", "remote"}},
			want:    []rec{{"a", "remote"}, {"c", "remote"}},
		},
		{
			name:    "duplicates within overlay resolve to the last",
			overlay: []rec{{"a", "first"}, {"a", "second"}},
			want:    []rec{{"a", "second"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ByID(tt.base, tt.overlay))
		})
	}
}
