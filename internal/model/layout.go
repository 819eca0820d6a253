// Package model defines the closed domain vocabulary of the reservation
// system: train and carriage classes with their layout tables, slot and
// order statuses, and route-stop validation.  Everything here is pure and
// owns no database state; repositories translate these values to and from
// their column representations.
package model

import (
	"errors"
	"fmt"
	"strconv"
)

// TrainClass enumerates the two kinds of trains the fleet operates.
type TrainClass uint8

const (
	TrainFast TrainClass = iota + 1
	TrainSlow
)

// CarriageClass enumerates the carriage types a train may be composed of.
type CarriageClass uint8

const (
	CarriageSecond CarriageClass = iota + 1
	CarriageFirst
	CarriageBusiness
)

// ErrUnknownClass is returned when parsing an unrecognized class label.
var ErrUnknownClass = errors.New("unknown class")

// String returns the database label for the train class.
func (t TrainClass) String() string {
	switch t {
	case TrainFast:
		return "FAST"
	case TrainSlow:
		return "SLOW"
	}
	return fmt.Sprintf("TrainClass(%d)", uint8(t))
}

// ParseTrainClass converts a database or request label into a TrainClass.
func ParseTrainClass(s string) (TrainClass, error) {
	switch s {
	case "FAST":
		return TrainFast, nil
	case "SLOW":
		return TrainSlow, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownClass, s)
}

// String returns the database label for the carriage class.
func (cc CarriageClass) String() string {
	switch cc {
	case CarriageSecond:
		return "SECOND_CLASS"
	case CarriageFirst:
		return "FIRST_CLASS"
	case CarriageBusiness:
		return "BUSINESS"
	}
	return fmt.Sprintf("CarriageClass(%d)", uint8(cc))
}

// ParseCarriageClass converts a database or request label into a CarriageClass.
func ParseCarriageClass(s string) (CarriageClass, error) {
	switch s {
	case "SECOND_CLASS":
		return CarriageSecond, nil
	case "FIRST_CLASS":
		return CarriageFirst, nil
	case "BUSINESS":
		return CarriageBusiness, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownClass, s)
}

// AllowedCarriageClasses returns the carriage classes a train of this class
// may carry.  Slow trains have no business carriages.
func (t TrainClass) AllowedCarriageClasses() []CarriageClass {
	switch t {
	case TrainFast:
		return []CarriageClass{CarriageSecond, CarriageFirst, CarriageBusiness}
	case TrainSlow:
		return []CarriageClass{CarriageSecond, CarriageFirst}
	}
	return nil
}

// Allows reports whether a carriage of class cc may be attached to a train
// of class t.
func (t TrainClass) Allows(cc CarriageClass) bool {
	for _, a := range t.AllowedCarriageClasses() {
		if a == cc {
			return true
		}
	}
	return false
}

// AllowedRowCounts returns the seat-row counts a carriage of this class may
// be built with.
func (cc CarriageClass) AllowedRowCounts() []int {
	switch cc {
	case CarriageSecond:
		return []int{12, 16}
	case CarriageFirst:
		return []int{10, 12}
	case CarriageBusiness:
		return []int{8}
	}
	return nil
}

// AllowsRows reports whether the carriage class may be built with the given
// number of seat rows.
func (cc CarriageClass) AllowsRows(rows int) bool {
	for _, r := range cc.AllowedRowCounts() {
		if r == rows {
			return true
		}
	}
	return false
}

// SeatLetters returns the per-row seat letters for the carriage class.
// Second class seats five abreast, first class four, business three.
func (cc CarriageClass) SeatLetters() []string {
	switch cc {
	case CarriageSecond:
		return []string{"A", "B", "C", "D", "F"}
	case CarriageFirst:
		return []string{"A", "C", "D", "F"}
	case CarriageBusiness:
		return []string{"A", "C", "F"}
	}
	return nil
}

// SeatNumbers materializes the full seat grid for a carriage: row numbers
// starting at 1 combined with the class's seat letters, e.g. "1A".."12F".
// It returns nil when the row count is not permitted for the class.
func SeatNumbers(cc CarriageClass, rows int) []string {
	if !cc.AllowsRows(rows) {
		return nil
	}
	letters := cc.SeatLetters()
	nums := make([]string, 0, rows*len(letters))
	for row := 1; row <= rows; row++ {
		for _, l := range letters {
			nums = append(nums, strconv.Itoa(row)+l)
		}
	}
	return nums
}
