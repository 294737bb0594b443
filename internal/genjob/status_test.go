package genjob

import "testing"

func TestTransitions(t *testing.T) {
	legal := [][2]string{
		{StatusPending, StatusProcessing},
		{StatusProcessing, StatusReady},
		{StatusProcessing, StatusFailed},
		{StatusProcessing, StatusPending},
		{StatusReady, StatusPending},
		{StatusFailed, StatusPending},
	}
	for _, pair := range legal {
		if _, err := Transition(pair[0], pair[1]); err != nil {
			t.Fatalf("expected %s -> %s legal: %v", pair[0], pair[1], err)
		}
	}

	illegal := [][2]string{
		{StatusPending, StatusReady},
		{StatusPending, StatusFailed},
		{StatusReady, StatusProcessing},
		{StatusFailed, StatusReady},
	}
	for _, pair := range illegal {
		if _, err := Transition(pair[0], pair[1]); err == nil {
			t.Fatalf("expected %s -> %s rejected", pair[0], pair[1])
		}
	}
}

func TestTerminalAndRunnable(t *testing.T) {
	if !IsTerminal(StatusReady) || !IsTerminal(StatusFailed) {
		t.Fatal("ready and failed are terminal")
	}
	if IsTerminal(StatusPending) || IsTerminal(StatusProcessing) {
		t.Fatal("pending and processing are not terminal")
	}
	if !IsRunnable(StatusPending) {
		t.Fatal("pending is runnable")
	}
	if IsRunnable(StatusProcessing) {
		t.Fatal("processing is not runnable")
	}
}

func TestSettleFailure(t *testing.T) {
	cases := []struct {
		attempts, max int
		want          string
	}{
		{1, 3, StatusPending},
		{2, 3, StatusPending},
		{3, 3, StatusFailed},
		{4, 3, StatusFailed},
		{1, 0, StatusFailed},
	}
	for _, c := range cases {
		if got := SettleFailure(c.attempts, c.max); got != c.want {
			t.Fatalf("SettleFailure(%d, %d) = %s, want %s", c.attempts, c.max, got, c.want)
		}
	}
}
