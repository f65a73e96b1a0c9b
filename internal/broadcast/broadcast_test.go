package broadcast

import (
	"context"
	"errors"
	"testing"
)

type recordingDeliverer struct {
	sent []int64
	fail map[int64]error
}

func (r *recordingDeliverer) Deliver(ctx context.Context, chatID int64, text string) error {
	r.sent = append(r.sent, chatID)
	if chatID == 13 {
		panic("unlucky")
	}
	return r.fail[chatID]
}

func TestSend_FailureDoesNotStopOthers(t *testing.T) {
	boom := errors.New("blocked by user")
	d := &recordingDeliverer{fail: map[int64]error{2: boom}}
	res := Send(context.Background(), d, []int64{1, 2, 13, 4}, "news")

	if len(d.sent) != 4 {
		t.Fatalf("not all recipients attempted: %v", d.sent)
	}
	failed := res.Failed()
	if len(failed) != 2 || failed[0].ChatID != 2 || failed[1].ChatID != 13 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	if !errors.Is(res.Err(), boom) {
		t.Fatalf("joined error lost cause: %v", res.Err())
	}
}

func TestSend_AllDelivered(t *testing.T) {
	d := &recordingDeliverer{}
	res := Send(context.Background(), d, []int64{1, 2}, "x")
	if res.Err() != nil || len(res) != 2 {
		t.Fatalf("unexpected: %+v", res)
	}
}

func TestSend_CancelledContextSkipsDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	d := DelivererFunc(func(ctx context.Context, chatID int64, text string) error {
		calls++
		cancel()
		return nil
	})
	res := Send(ctx, d, []int64{1, 2, 3}, "x")
	if calls != 1 {
		t.Fatalf("deliveries after cancel: %d", calls)
	}
	if len(res.Failed()) != 2 || !errors.Is(res.Failed()[0].Err, context.Canceled) {
		t.Fatalf("unexpected results: %+v", res)
	}
}
