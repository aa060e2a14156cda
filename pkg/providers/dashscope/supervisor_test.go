package dashscope

import "testing"

func TestBuildURL(t *testing.T) {
	cases := []struct {
		base  string
		model string
		want  string
	}{
		{
			base:  "wss://dashscope.aliyuncs.com/api-ws/v1/realtime",
			model: "qwen3-asr-flash-realtime",
			want:  "wss://dashscope.aliyuncs.com/api-ws/v1/realtime?model=qwen3-asr-flash-realtime",
		},
		{
			base:  "https://example.com/realtime",
			model: "m",
			want:  "wss://example.com/realtime?model=m",
		},
		{
			base:  "http://localhost:8080/rt",
			model: "m",
			want:  "ws://localhost:8080/rt?model=m",
		},
	}
	for _, tc := range cases {
		got, err := buildURL(tc.base, tc.model)
		if err != nil {
			t.Errorf("buildURL(%q): %v", tc.base, err)
			continue
		}
		if got != tc.want {
			t.Errorf("buildURL(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}

func TestBuildURLRejectsGarbage(t *testing.T) {
	if _, err := buildURL("://not-a-url", "m"); err == nil {
		t.Error("buildURL accepted an unparseable base")
	}
}
