// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package otp implements the one-time-password challenge used by the password
reset flow.

Flow:

 1. Request: the backend emails a 6-digit code and a resend countdown starts.
 2. Resend: allowed only once the countdown has elapsed.
 3. Verify: the code is checked by the backend. On success a short-lived reset
    ticket (signed email + code) is handed to the browser as a cookie.
 4. Reset: the ticket and the new password complete the flow.

The [Challenge] type models the code input itself: six ordered digit slots,
a focus position, and the Entering, Submitting, Verified and Rejected states.
*/
package otp

import "strings"

// Length is the number of digits of every code.
const Length = 6

// # States

// State is the lifecycle position of a [Challenge].
type State int

const (
	// StateEntering accepts digit input.
	StateEntering State = iota
	// StateSubmitting waits for the backend verdict. Input is frozen.
	StateSubmitting
	// StateVerified is terminal.
	StateVerified
	// StateRejected holds an error notice; the next input returns to Entering.
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateEntering:
		return "entering"
	case StateSubmitting:
		return "submitting"
	case StateVerified:
		return "verified"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// # Challenge

// Challenge is the transient verification state for one email address.
//
// A Challenge always holds exactly [Length] slots. It is not safe for
// concurrent use.
type Challenge struct {
	email  string
	slots  [Length]byte
	focus  int
	state  State
	notice string
}

// NewChallenge starts an empty challenge for email with focus on the first slot.
func NewChallenge(email string) *Challenge {
	return &Challenge{email: email}
}

// Email returns the address the code was sent to.
func (c *Challenge) Email() string { return c.email }

// Focus returns the index of the focused slot.
func (c *Challenge) Focus() int { return c.focus }

// State returns the current lifecycle state.
func (c *Challenge) State() State { return c.state }

// Notice returns the error notice of the last rejection, if any.
func (c *Challenge) Notice() string { return c.notice }

// Slots returns the six slots; empty slots are "".
func (c *Challenge) Slots() [Length]string {
	var out [Length]string
	for i, digit := range c.slots {
		if digit != 0 {
			out[i] = string(digit)
		}
	}
	return out
}

/*
Enter writes one digit into slot i and moves focus to the next slot.

Returns false, leaving everything unchanged, when r is not an ASCII digit, i is
out of range, or the challenge does not accept input.
*/
func (c *Challenge) Enter(i int, r rune) bool {
	if !c.editable() || i < 0 || i >= Length || !isDigit(r) {
		return false
	}
	c.resume()

	c.slots[i] = byte(r)
	c.focus = min(i+1, Length-1)
	return true
}

/*
Backspace clears slot i. When slot i is already empty, focus moves to the
previous slot and that slot is cleared instead.
*/
func (c *Challenge) Backspace(i int) {
	if !c.editable() || i < 0 || i >= Length {
		return
	}
	c.resume()

	if c.slots[i] != 0 {
		c.slots[i] = 0
		c.focus = i
		return
	}

	if i > 0 {
		c.focus = i - 1
		c.slots[i-1] = 0
	}
}

/*
Paste distributes up to [Length] digits from s across the slots, starting at the
first one, and focuses the last slot written.

Any non-digit content rejects the whole paste and nothing changes. Surrounding
whitespace is ignored.
*/
func (c *Challenge) Paste(s string) bool {
	if !c.editable() {
		return false
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isDigit(r) {
			return false
		}
	}
	c.resume()

	n := min(len(s), Length)
	for i := 0; i < n; i++ {
		c.slots[i] = s[i]
	}
	c.focus = n - 1
	return true
}

// Complete reports whether every slot holds a digit.
func (c *Challenge) Complete() bool {
	for _, digit := range c.slots {
		if digit == 0 {
			return false
		}
	}
	return true
}

// Code assembles the slots. ok is false until the challenge is complete.
func (c *Challenge) Code() (code string, ok bool) {
	if !c.Complete() {
		return "", false
	}
	return string(c.slots[:]), true
}

// Submit freezes input and returns the code to verify.
// ok is false when the challenge is incomplete or not accepting input.
func (c *Challenge) Submit() (code string, ok bool) {
	if !c.editable() {
		return "", false
	}
	code, ok = c.Code()
	if !ok {
		return "", false
	}
	c.state = StateSubmitting
	c.notice = ""
	return code, true
}

// Resolve records the verdict of a submission. A rejection clears every slot,
// returns focus to the first one and keeps notice for display.
func (c *Challenge) Resolve(verified bool, notice string) {
	if c.state != StateSubmitting {
		return
	}

	if verified {
		c.state = StateVerified
		return
	}

	c.slots = [Length]byte{}
	c.focus = 0
	c.state = StateRejected
	c.notice = notice
}

func (c *Challenge) editable() bool {
	return c.state == StateEntering || c.state == StateRejected
}

// resume leaves the Rejected state on the first new input.
func (c *Challenge) resume() {
	if c.state == StateRejected {
		c.state = StateEntering
		c.notice = ""
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
