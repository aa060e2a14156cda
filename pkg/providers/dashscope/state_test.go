package dashscope

import "testing"

func TestTransitionValid(t *testing.T) {
	cases := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateStarting, true},
		{StateIdle, StateStreaming, false},
		{StateIdle, StateIdle, false},
		{StateStarting, StateNegotiating, true},
		{StateStarting, StateStopping, true},
		{StateStarting, StateStreaming, false},
		{StateNegotiating, StateStreaming, true},
		{StateNegotiating, StateReconnecting, true},
		{StateNegotiating, StateStopping, true},
		{StateStreaming, StateReconnecting, true},
		{StateStreaming, StateStopping, true},
		{StateStreaming, StateNegotiating, false},
		{StateReconnecting, StateNegotiating, true},
		{StateReconnecting, StateStopping, true},
		{StateReconnecting, StateStreaming, false},
		{StateStopping, StateIdle, true},
		{StateStopping, StateStarting, false},
	}
	for _, tc := range cases {
		if got := transitionValid(tc.from, tc.to); got != tc.want {
			t.Errorf("transitionValid(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
