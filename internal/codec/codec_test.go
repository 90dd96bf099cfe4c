package codec

import (
	"bytes"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    []byte
		wantErr bool
	}{
		{
			name: "plain ascii",
			text: "SQLEXPRESS",
			want: []byte("SQLEXPRESS"),
		},
		{
			name: "latin accents map to single bytes",
			text: "café",
			want: []byte{0x63, 0x61, 0x66, 0xe9},
		},
		{
			name: "euro sign in windows-1252",
			text: "€",
			want: []byte{0x80},
		},
		{
			name:    "rune outside codepage",
			text:    "→",
			wantErr: true,
		},
		{
			name: "empty string",
			text: "",
			want: []byte{},
		},
	}

	c := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Encode(tt.text)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Encode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !bytes.Equal(got, tt.want) {
				t.Errorf("Encode() = % x, want % x", got, tt.want)
			}
		})
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	c := Default()

	for _, text := range []string{"HOST", "café", "12.0.2000.8", ""} {
		encoded, err := c.Encode(text)
		if err != nil {
			t.Fatalf("Encode(%q) error = %v", text, err)
		}

		decoded, err := c.Decode(encoded)
		if err != nil {
			t.Fatalf("Decode(%q) error = %v", text, err)
		}
		if decoded != text {
			t.Errorf("round trip = %q, want %q", decoded, text)
		}
	}
}

func TestByteLength(t *testing.T) {
	c := Default()

	n, err := c.ByteLength("café")
	if err != nil {
		t.Fatalf("ByteLength() error = %v", err)
	}
	// 4 bytes encoded even though the Go string holds 5 UTF-8 bytes
	if n != 4 {
		t.Errorf("ByteLength() = %d, want 4", n)
	}

	if _, err := c.ByteLength("→"); err == nil {
		t.Error("ByteLength() should fail for unrepresentable text")
	}
}

func TestForName(t *testing.T) {
	tests := []struct {
		name     string
		codepage string
		wantErr  bool
	}{
		{name: "windows-1252", codepage: "windows-1252"},
		{name: "latin-1", codepage: "ISO-8859-1"},
		{name: "unknown name", codepage: "no-such-codepage", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ForName(tt.codepage)

			if (err != nil) != tt.wantErr {
				t.Fatalf("ForName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && c.Name() != tt.codepage {
				t.Errorf("Name() = %q, want %q", c.Name(), tt.codepage)
			}
		})
	}
}
