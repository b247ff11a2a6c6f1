package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckCapacity(t *testing.T) {
	tests := []struct {
		name          string
		enrolled      int
		capacity      int
		alreadyActive bool
		want          error
	}{
		{"free seat", 0, 1, false, nil},
		{"last seat", 29, 30, false, nil},
		{"full", 30, 30, false, ErrCourseFull},
		{"over capacity", 31, 30, false, ErrCourseFull},
		{"already active wins over full", 30, 30, true, ErrAlreadyEnrolled},
		{"already active with room", 1, 30, true, ErrAlreadyEnrolled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCapacity(tt.enrolled, tt.capacity, tt.alreadyActive)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
