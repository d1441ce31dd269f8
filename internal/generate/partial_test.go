package generate

import (
	"testing"
)

func TestCompleteJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"no json", "thinking...", "", false},
		{"open object", "{", "{}", true},
		{"open array", `{"questions":[`, `{"questions":[]}`, true},
		{"dangling key", `{"questions"`, `{}`, true},
		{"inside value string", `{"questions":[{"question":"What is`, `{"questions":[{"question":"What is"}]}`, true},
		{"inside key", `{"questions":[{"question":"What is X?","opt`, `{"questions":[{"question":"What is X?"}]}`, true},
		{"inside options", `{"questions":[{"question":"Q","options":["a","b`, `{"questions":[{"question":"Q","options":["a","b"]}]}`, true},
		{"empty string value", `{"a":"`, `{"a":""}`, true},
		{"after comma", `{"a":"b",`, `{"a":"b"}`, true},
		{"incomplete number", `{"a":1`, `{}`, true},
		{"complete number", `{"a":1,`, `{"a":1}`, true},
		{"complete literal", `{"a":true}`, `{"a":true}`, true},
		{"pending escape", `{"a":"x\`, `{"a":"x"}`, true},
		{"pending unicode escape", `{"a":"x\u00`, `{"a":"x"}`, true},
		{"multibyte rune", `{"a":"xé!`, `{"a":"xé!"}`, true},
		{"escaped quote", `{"a":"say \"hi`, `{"a":"say \"hi"}`, true},
		{"leading prose", `Here you go: {"a":"b"`, `{"a":"b"}`, true},
		{"code fence", "```json\n{\"a\":\"b\"}\n```", `{"a":"b"}`, true},
		{"bare array", `[{"question":"Q1"},{"quest`, `[{"question":"Q1"},{}]`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := completeJSON([]byte(tt.in))
			if ok != tt.ok {
				t.Fatalf("completeJSON(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if string(got) != tt.want {
				t.Errorf("completeJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCompleteJSONSplitRune(t *testing.T) {
	// "é" is two bytes; cutting between them must fall back to before the rune.
	in := []byte(`{"a":"caf` + "\xc3")
	got, ok := completeJSON(in)
	if !ok {
		t.Fatal("completeJSON() ok = false")
	}
	if string(got) != `{"a":"caf"}` {
		t.Errorf("completeJSON() = %q", got)
	}
}

func TestDecodePartial(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantLen   int
		wantFirst string
		ok        bool
	}{
		{"envelope", `{"questions":[{"question":"Q1","options":["a"`, 1, "Q1", true},
		{"bare array", `[{"question":"Q1"},{"question":"Q2`, 2, "Q1", true},
		{"other key", `{"quiz":[{"question":"Q1"`, 1, "Q1", true},
		{"nothing yet", `{`, 0, "", true},
		{"wrong shape", `{"questions":"oops"`, 0, "", false},
		{"no json", `sorry`, 0, "", false},
		{"bracketed prose", "Here [is] the quiz:\n" + `{"questions":[{"question":"Q1"`, 1, "Q1", true},
		{"prose still open", `Here [is`, 0, "", false},
		{"complete prose array", `See [1]: [{"question":"Q1"`, 1, "Q1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodePartial([]byte(tt.in))
			if ok != tt.ok {
				t.Fatalf("decodePartial(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if got.Len() != tt.wantLen {
				t.Fatalf("decodePartial(%q) len = %d, want %d", tt.in, got.Len(), tt.wantLen)
			}
			if tt.wantLen > 0 && got.Questions[0].Prompt != tt.wantFirst {
				t.Errorf("first question = %q, want %q", got.Questions[0].Prompt, tt.wantFirst)
			}
		})
	}
}

func TestDecodeQuiz(t *testing.T) {
	good := `{"questions":[{"question":"Q","options":["a","b","c","d"],"answer":"A","difficulty":"easy"}]}`
	tests := []struct {
		name    string
		in      string
		wantLen int
		wantErr bool
	}{
		{"envelope", good, 1, false},
		{"fenced", "```json\n" + good + "\n```", 1, false},
		{"bare array", `[{"question":"Q","options":["a","b","c","d"],"answer":"B","difficulty":"hard"}]`, 1, false},
		{"truncated", `{"questions":[{"question":"Q"`, 0, true},
		{"not json", `I cannot read this file.`, 0, true},
		{"options wrong type", `{"questions":[{"question":"Q","options":"abcd"}]}`, 0, true},
		{"two unknown keys", `{"a":[],"b":[]}`, 0, true},
		{"bracketed prose", "Here [is] the quiz:\n" + good, 1, false},
		{"prose with a number list", "Answers [1, 2] follow.\n" + good, 1, false},
		{"bracketed prose only", `Here [is] nothing.`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := decodeQuiz([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeQuiz() error = %v, wantErr %v", err, tt.wantErr)
			}
			if q.Len() != tt.wantLen {
				t.Errorf("decodeQuiz() len = %d, want %d", q.Len(), tt.wantLen)
			}
		})
	}
}
