package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// flakyClient 前failures次调用失败的假客户端
type flakyClient struct {
	Client

	failures  int
	calls     int
	sendCalls int
	sendErr   error
}

func (f *flakyClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	f.calls++
	if f.calls <= f.failures {
		return 0, errors.New("connection refused")
	}
	return 777, nil
}

func (f *flakyClient) SendTransaction(ctx context.Context, signedTxBase64 string) (string, error) {
	f.sendCalls++
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return "sig", nil
}

func newTestRetryClient(inner Client, attempts int) *RetryClient {
	return NewRetryClient(inner, RetryConfig{
		Attempts: attempts,
		Backoff:  time.Millisecond,
	}, zerolog.Nop())
}

func TestRetryClient_RecoversAfterTransientFailure(t *testing.T) {
	inner := &flakyClient{failures: 2}
	client := newTestRetryClient(inner, 3)

	balance, err := client.GetBalance(context.Background(), "addr")
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	if balance != 777 {
		t.Errorf("balance = %v, want 777", balance)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestRetryClient_ExhaustionIsNetworkUnavailable(t *testing.T) {
	inner := &flakyClient{failures: 10}
	client := newTestRetryClient(inner, 3)

	_, err := client.GetBalance(context.Background(), "addr")
	if !errors.Is(err, ErrNetworkUnavailable) {
		t.Fatalf("GetBalance() error = %v, want ErrNetworkUnavailable", err)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestRetryClient_SendTransactionSingleShot(t *testing.T) {
	// 提交不具备幂等性，失败也只发一次
	inner := &flakyClient{sendErr: errors.New("connection reset")}
	client := newTestRetryClient(inner, 3)

	_, err := client.SendTransaction(context.Background(), "dHg=")
	if err == nil {
		t.Fatalf("SendTransaction() expected error")
	}
	if inner.sendCalls != 1 {
		t.Errorf("sendCalls = %d, want 1", inner.sendCalls)
	}
}

func TestRetryClient_RejectedNotRetried(t *testing.T) {
	// 节点明确拒绝不是网络故障，重试只会得到同样的答案
	inner := &flakyClient{sendErr: &RejectedError{Reason: "simulation failed"}}
	client := newTestRetryClient(inner, 3)

	_, err := client.SendTransaction(context.Background(), "dHg=")

	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("SendTransaction() error = %v, want RejectedError", err)
	}
	if inner.sendCalls != 1 {
		t.Errorf("sendCalls = %d, want 1", inner.sendCalls)
	}
}

func TestRetryClient_ContextCancelStopsRetry(t *testing.T) {
	inner := &flakyClient{failures: 10}
	client := newTestRetryClient(inner, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.GetBalance(ctx, "addr"); err == nil {
		t.Fatalf("GetBalance() expected error after cancel")
	}
	if inner.calls > 1 {
		t.Errorf("calls = %d, want at most 1 after cancel", inner.calls)
	}
}
