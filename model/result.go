package model

// Result is the outcome code of a world action primitive.
type Result int

const (
	OK Result = iota
	ErrNotInRange
	ErrTired
	ErrFull
	ErrNotEnough
	ErrInvalidTarget
	ErrNotOwner
	ErrNoPath
	ErrBusy
	ErrNoBodyPart
	ErrNameExists
)

var resultNames = [...]string{
	OK:               "ok",
	ErrNotInRange:    "not_in_range",
	ErrTired:         "tired",
	ErrFull:          "full",
	ErrNotEnough:     "not_enough",
	ErrInvalidTarget: "invalid_target",
	ErrNotOwner:      "not_owner",
	ErrNoPath:        "no_path",
	ErrBusy:          "busy",
	ErrNoBodyPart:    "no_body_part",
	ErrNameExists:    "name_exists",
}

func (r Result) String() string {
	if r >= 0 && int(r) < len(resultNames) {
		return resultNames[r]
	}
	return "unknown"
}
