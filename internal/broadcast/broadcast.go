package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Deliverer sends a text to a single chat.
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, text string) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, chatID int64, text string) error

func (f DelivererFunc) Deliver(ctx context.Context, chatID int64, text string) error {
	return f(ctx, chatID, text)
}

// Result is the outcome for one recipient.
type Result struct {
	ChatID int64
	Err    error
}

type Results []Result

// Failed returns the recipients whose delivery did not succeed.
func (rs Results) Failed() []Result {
	var out []Result
	for _, r := range rs {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Err joins every per-recipient error, or returns nil when all succeeded.
func (rs Results) Err() error {
	var errs []error
	for _, r := range rs.Failed() {
		errs = append(errs, fmt.Errorf("recipient %d: %w", r.ChatID, r.Err))
	}
	return errors.Join(errs...)
}

// Send delivers text to every recipient in order. A failing recipient is
// logged and does not stop the rest. Once ctx is done the remaining
// recipients are marked with ctx.Err() without being attempted.
func Send(ctx context.Context, d Deliverer, recipients []int64, text string) Results {
	results := make(Results, 0, len(recipients))
	for _, id := range recipients {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{ChatID: id, Err: err})
			continue
		}
		err := deliver(ctx, d, id, text)
		if err != nil {
			log.Printf("❌ Failed to send report to user %d: %v", id, err)
		}
		results = append(results, Result{ChatID: id, Err: err})
	}
	return results
}

func deliver(ctx context.Context, d Deliverer, id int64, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("deliver panicked: %v", r)
		}
	}()
	return d.Deliver(ctx, id, text)
}
