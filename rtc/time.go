package rtc

import (
	"fmt"
	"time"
)

// Time is the SD3078's 7-byte packed-BCD register image:
// {second, minute, hour, weekday (0 = Sunday), day, month, year-2000}.
type Time [7]byte

// toBCD converts a decimal number to binary-coded decimal.
func toBCD(n int) byte {
	return byte(n)/10<<4 + byte(n)%10
}

func fromBCD(b byte) int {
	return int(b&0x0F) + int(b>>4)*10
}

// FromTime encodes a calendar time into the SD3078 register layout.
// The chip only stores a 2-digit year.
func FromTime(t time.Time) Time {
	return Time{
		toBCD(t.Second()),
		toBCD(t.Minute()),
		toBCD(t.Hour()),
		toBCD(int(t.Weekday())),
		toBCD(t.Day()),
		toBCD(int(t.Month())),
		toBCD(t.Year() % 100),
	}
}

// Time decodes the register image into a calendar time in the local
// time zone.
func (t Time) Time() time.Time {
	return time.Date(
		2000+fromBCD(t[6]),
		time.Month(fromBCD(t[5])),
		fromBCD(t[4]),
		fromBCD(t[2]),
		fromBCD(t[1]),
		fromBCD(t[0]),
		0, time.Local)
}

// Weekday returns the stored day of week, 0 = Sunday.
func (t Time) Weekday() int {
	return fromBCD(t[3])
}

func (t Time) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
		2000+fromBCD(t[6]), fromBCD(t[5]), fromBCD(t[4]),
		fromBCD(t[2]), fromBCD(t[1]), fromBCD(t[0]))
}
