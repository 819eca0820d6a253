package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func stopsFrom(seqs []uint32, distances []uint32) []StopInput {
	stops := make([]StopInput, len(seqs))
	for i := range seqs {
		stops[i] = StopInput{
			StationID:  uint64(i + 100),
			Seq:        seqs[i],
			Arrival:    "08:00:00",
			Departure:  "08:05:00",
			DistanceKM: distances[i],
		}
	}
	return stops
}

func TestValidateStops(t *testing.T) {
	cases := []struct {
		name      string
		seqs      []uint32
		distances []uint32
		wantErr   bool
	}{
		{"valid three stops", []uint32{1, 2, 3}, []uint32{0, 50, 120}, false},
		{"equal distances allowed", []uint32{1, 2, 3}, []uint32{0, 50, 50}, false},
		{"gap in sequence", []uint32{1, 2, 4}, []uint32{0, 50, 120}, true},
		{"not increasing", []uint32{1, 3, 2}, []uint32{0, 50, 120}, true},
		{"not starting at one", []uint32{2, 3, 4}, []uint32{0, 50, 120}, true},
		{"distance decreases", []uint32{1, 2, 3}, []uint32{0, 50, 30}, true},
		{"single stop", []uint32{1}, []uint32{0}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateStops(stopsFrom(tc.seqs, tc.distances))
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSequence)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateStopsRequiresStation(t *testing.T) {
	stops := stopsFrom([]uint32{1, 2}, []uint32{0, 10})
	stops[1].StationID = 0
	assert.ErrorIs(t, ValidateStops(stops), ErrInvalidSequence)
}

func TestValidateStopsTimes(t *testing.T) {
	cases := []struct {
		name      string
		arrival   string
		departure string
		wantErr   bool
	}{
		{"with seconds", "08:00:00", "08:05:00", false},
		{"without seconds", "08:00", "08:05", false},
		{"not a time", "banana", "08:05:00", true},
		{"empty departure", "08:00:00", "", true},
		{"hour out of range", "25:00", "08:05", true},
		{"minute out of range", "08:61", "08:05", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stops := stopsFrom([]uint32{1, 2}, []uint32{0, 10})
			stops[0].Arrival = tc.arrival
			stops[0].Departure = tc.departure
			err := ValidateStops(stops)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSequence)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTotalLegs(t *testing.T) {
	assert.Equal(t, uint32(9), TotalLegs(10))
	assert.Equal(t, uint32(1), TotalLegs(2))
	assert.Equal(t, uint32(0), TotalLegs(1))
	assert.Equal(t, uint32(0), TotalLegs(0))
}
