package cst816s

import (
	"fmt"

	"github.com/hwbits/go-cst816s/pkg/hal"
)

// Gesture is the motion the controller classified for the last touch
type Gesture uint8

const (
	GESTURE_NONE         Gesture = 0x00
	GESTURE_SLIDE_UP     Gesture = 0x01
	GESTURE_SLIDE_DOWN   Gesture = 0x02
	GESTURE_SLIDE_LEFT   Gesture = 0x03
	GESTURE_SLIDE_RIGHT  Gesture = 0x04
	GESTURE_SINGLE_CLICK Gesture = 0x05
	GESTURE_DOUBLE_CLICK Gesture = 0x0B
	GESTURE_LONG_PRESS   Gesture = 0x0C
)

var gestureNames = map[Gesture]string{
	GESTURE_NONE:         "NoGesture",
	GESTURE_SLIDE_UP:     "SlideUp",
	GESTURE_SLIDE_DOWN:   "SlideDown",
	GESTURE_SLIDE_LEFT:   "SlideLeft",
	GESTURE_SLIDE_RIGHT:  "SlideRight",
	GESTURE_SINGLE_CLICK: "SingleClick",
	GESTURE_DOUBLE_CLICK: "DoubleClick",
	GESTURE_LONG_PRESS:   "LongPress",
}

// decodeGesture maps a raw register value to a gesture. The code points are
// sparse, anything outside the known set is a decode failure and must not be
// silently replaced with a default.
func decodeGesture(raw uint8) (Gesture, error) {
	gesture := Gesture(raw)
	if _, ok := gestureNames[gesture]; !ok {
		return 0, fmt.Errorf("failed to decode gesture code 0x%02X: %w", raw, hal.ErrDecode)
	}
	return gesture, nil
}

func (obj Gesture) String() string {
	name, ok := gestureNames[obj]
	if !ok {
		return fmt.Sprintf("Unknown(0x%02X)", uint8(obj))
	}
	return name
}

// gestureEnum exposes the known code points as descriptor metadata
func gestureEnum() map[uint8]string {
	enum := make(map[uint8]string, len(gestureNames))
	for gesture, name := range gestureNames {
		enum[uint8(gesture)] = name
	}
	return enum
}
