package domain

import "reflect"

// Changed returns true if cur differs from prev in anything a subscriber
// would display. The cursor and pending commands are ignored: a new record
// with identical values is not a change.
func Changed(prev, cur *DisplayState) bool {
	if prev == nil && cur == nil {
		return false
	}
	if prev == nil || cur == nil {
		return true
	}

	p, c := *prev, *cur // copy
	p.LastSeenID, c.LastSeenID = nil, nil
	p.pendingYellow, c.pendingYellow = pendingToggle{}, pendingToggle{}
	p.pendingBlue, c.pendingBlue = pendingToggle{}, pendingToggle{}

	return !reflect.DeepEqual(p, c)
}
