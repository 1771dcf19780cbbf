package gpt

import "testing"

func TestFormatPrompt(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "grammar correction",
			req: Request{
				Task:       "Correct grammar mistakes.",
				Text:       "Where is you?",
				InputDesc:  "Original",
				OutputDesc: "Standard American English",
				Examples:   []Example{{Input: "Where do you went?", Output: "Where did you go?"}},
			},
			want: "Correct grammar mistakes.\n\n" +
				"Original: Where do you went?\n" +
				"Standard American English: Where did you go?\n" +
				"Original: Where is you?\n" +
				"Standard American English:",
		},
		{
			name: "output only examples without descriptions",
			req: Request{
				Task:     "List animals.",
				Examples: []Example{{Output: "elephant"}, {Output: "giraffe"}},
			},
			want: "List animals.\n\nelephant\ngiraffe\n",
		},
		{
			name: "empty example pair is skipped",
			req:  Request{Text: "hello", Examples: []Example{{}}},
			want: "hello\n",
		},
		{
			name: "nothing",
			req:  Request{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatPrompt(tt.req); got != tt.want {
				t.Errorf("FormatPrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}
