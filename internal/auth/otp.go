package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultOTPLength is the number of digits in a code.
	DefaultOTPLength = 6
	// OTPResendAfter is the countdown, in seconds, before a code can be re-sent.
	OTPResendAfter = 600
)

// OTPVerifyFunc checks a complete code with the backend.
type OTPVerifyFunc func(ctx context.Context, code string) error

// OTPResendFunc asks the backend to send a new code.
type OTPResendFunc func(ctx context.Context) error

// OTPCard is a fixed-length numeric code entry with a resend countdown.
type OTPCard struct {
	verify OTPVerifyFunc
	resend OTPResendFunc

	mu        sync.Mutex
	length    int
	digits    []string
	focus     int
	remaining int
	verified  bool
}

// OTPState is a snapshot of the card.
type OTPState struct {
	Digits         []string `json:"digits"`
	Focus          int      `json:"focus"`
	Remaining      int      `json:"remaining"`
	RemainingLabel string   `json:"remainingLabel"`
	CanResend      bool     `json:"canResend"`
	Complete       bool     `json:"complete"`
	Verified       bool     `json:"verified"`
}

// NewOTPCard starts a card with the full countdown.
func NewOTPCard(length int, verify OTPVerifyFunc, resend OTPResendFunc) *OTPCard {
	if length <= 0 {
		length = DefaultOTPLength
	}
	return &OTPCard{
		verify:    verify,
		resend:    resend,
		length:    length,
		digits:    make([]string, length),
		remaining: OTPResendAfter,
	}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// Input sets box index to value, which must be one digit or empty. A digit
// moves focus to the next box.
func (c *OTPCard) Input(index int, value string) error {
	if len(value) > 1 || (value != "" && !isDigit(rune(value[0]))) {
		return ErrInvalidOTPInput
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= c.length {
		return fmt.Errorf("otp box %d out of range", index)
	}
	c.digits[index] = value
	c.focus = index
	if value != "" && index < c.length-1 {
		c.focus = index + 1
	}
	return nil
}

// Backspace clears box index, or moves focus back when it is already empty.
func (c *OTPCard) Backspace(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= c.length {
		return fmt.Errorf("otp box %d out of range", index)
	}
	if c.digits[index] != "" {
		c.digits[index] = ""
		c.focus = index
		return nil
	}
	if index > 0 {
		c.focus = index - 1
	}
	return nil
}

// Paste spreads an all-digit string across the boxes from the first one.
// Extra digits are dropped; boxes past the pasted digits keep their value.
func (c *OTPCard) Paste(text string) error {
	text = strings.TrimSpace(text)
	if text == "" || strings.IndexFunc(text, func(r rune) bool { return !isDigit(r) }) >= 0 {
		return ErrInvalidOTPInput
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < len(text) && i < c.length; i++ {
		c.digits[i] = text[i : i+1]
	}
	return nil
}

// Code joins the boxes.
func (c *OTPCard) Code() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.digits, "")
}

// Tick advances the countdown by one second and returns what remains.
func (c *OTPCard) Tick() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining > 0 {
		c.remaining--
	}
	return c.remaining
}

// Countdown ticks the card on every value from ticks until ctx ends.
func (c *OTPCard) Countdown(ctx context.Context, ticks <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			c.Tick()
		}
	}
}

// Start runs Countdown on a one-second ticker and returns its stop func.
func (c *OTPCard) Start(ctx context.Context) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		c.Countdown(ctx, ticker.C)
	}()
	return cancel
}

func (c *OTPCard) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *OTPCard) CanResend() bool {
	return c.Remaining() == 0
}

// Resend re-sends the code once the countdown has reached zero, restarting
// it. Before that it does nothing and reports false.
func (c *OTPCard) Resend(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.remaining > 0 {
		c.mu.Unlock()
		return false, nil
	}
	c.remaining = OTPResendAfter
	c.mu.Unlock()

	if c.resend == nil {
		return true, nil
	}
	if err := c.resend(ctx); err != nil {
		return true, fmt.Errorf("resend otp: %w", err)
	}
	return true, nil
}

// Verify submits the complete code.
func (c *OTPCard) Verify(ctx context.Context) error {
	c.mu.Lock()
	code := strings.Join(c.digits, "")
	complete := len(code) == c.length
	c.mu.Unlock()

	if !complete {
		return ErrOTPIncomplete
	}
	if c.verify != nil {
		if err := c.verify(ctx, code); err != nil {
			return err
		}
	}
	c.mu.Lock()
	c.verified = true
	c.mu.Unlock()
	return nil
}

func (c *OTPCard) Verified() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verified
}

func (c *OTPCard) State() OTPState {
	c.mu.Lock()
	defer c.mu.Unlock()
	code := strings.Join(c.digits, "")
	return OTPState{
		Digits:         append([]string(nil), c.digits...),
		Focus:          c.focus,
		Remaining:      c.remaining,
		RemainingLabel: FormatRemaining(c.remaining),
		CanResend:      c.remaining == 0,
		Complete:       len(code) == c.length,
		Verified:       c.verified,
	}
}

// FormatRemaining renders seconds as MM:SS.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
