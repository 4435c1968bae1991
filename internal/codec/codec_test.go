package codec

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

func TestSanitizeQuantity(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"empty", "", 1},
		{"plain", "3", 3},
		{"whitespace", "  7  ", 7},
		{"zero", "0", 1},
		{"negative", "-5", 1},
		{"non-numeric", "abc", 1},
		{"digit prefix", "3abc", 3},
		{"decimal", "99.9", 99},
		{"at max", "99", 99},
		{"over max", "100", 99},
		{"far over max", "100000", 99},
		{"plus sign", "+4", 4},
		{"lone sign", "-", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeQuantity(tt.raw)
			if got != tt.want {
				t.Errorf("SanitizeQuantity(%q) = %d, want %d", tt.raw, got, tt.want)
			}
			if got < 1 || got > MaxQuantity {
				t.Errorf("SanitizeQuantity(%q) = %d, outside [1,%d]", tt.raw, got, MaxQuantity)
			}
		})
	}
}

func TestEncodeMetadataEmpty(t *testing.T) {
	for _, meta := range []any{nil, ""} {
		token, err := EncodeMetadata(meta)
		if err != nil {
			t.Fatalf("EncodeMetadata(%v) error: %v", meta, err)
		}
		if token != "" {
			t.Errorf("EncodeMetadata(%v) = %q, want empty token", meta, token)
		}
	}
}

func TestEncodeMetadataString(t *testing.T) {
	token, err := EncodeMetadata("bundle=deluxe")
	if err != nil {
		t.Fatalf("EncodeMetadata error: %v", err)
	}

	want := base64.RawURLEncoding.EncodeToString([]byte("bundle=deluxe"))
	if token != want {
		t.Errorf("token = %q, want %q", token, want)
	}
}

func TestEncodeMetadataNoPadding(t *testing.T) {
	// Lengths chosen so standard base64 would require one or two '=' pads.
	for _, s := range []string{"a", "ab", "abc", "abcd"} {
		token, err := EncodeMetadata(s)
		if err != nil {
			t.Fatalf("EncodeMetadata(%q) error: %v", s, err)
		}
		for _, c := range token {
			if c == '=' || c == '+' || c == '/' {
				t.Errorf("EncodeMetadata(%q) = %q contains %q", s, token, c)
			}
		}
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	meta := map[string]any{
		"variant": "black/512gb",
		"tags":    []any{"sale", "bundle+"},
		"weight":  1.5,
	}

	token, err := EncodeMetadata(meta)
	if err != nil {
		t.Fatalf("EncodeMetadata error: %v", err)
	}

	data, err := DecodeMetadata(token)
	if err != nil {
		t.Fatalf("DecodeMetadata error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decoded token is not JSON: %v", err)
	}
	if got["variant"] != meta["variant"] {
		t.Errorf("variant = %v, want %v", got["variant"], meta["variant"])
	}
}

func TestDecodeMetadataAcceptsPadding(t *testing.T) {
	padded := base64.URLEncoding.EncodeToString([]byte("ab"))

	data, err := DecodeMetadata(padded)
	if err != nil {
		t.Fatalf("DecodeMetadata error: %v", err)
	}
	if string(data) != "ab" {
		t.Errorf("decoded = %q, want %q", data, "ab")
	}
}

func TestEncodeMetadataUnserializable(t *testing.T) {
	// Channels cannot be serialized; this is the terminal encoding failure.
	if _, err := EncodeMetadata(map[string]any{"ch": make(chan int)}); err == nil {
		t.Error("EncodeMetadata with unserializable value: want error, got nil")
	}
}
