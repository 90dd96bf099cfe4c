package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/mkuiper/sqlbrowse/internal/codec"
)

func TestBuildSweepRequests(t *testing.T) {
	if got := BuildBroadcastAll(); !bytes.Equal(got, []byte{0x02}) {
		t.Errorf("BuildBroadcastAll() = % x, want 02", got)
	}
	if got := BuildUnicastAll(); !bytes.Equal(got, []byte{0x03}) {
		t.Errorf("BuildUnicastAll() = % x, want 03", got)
	}
}

func TestBuildUnicastInstance(t *testing.T) {
	tests := []struct {
		name     string
		instance string
		want     []byte
		wantErr  bool
	}{
		{
			name:     "plain name",
			instance: "SQLEXPRESS",
			want:     append(append([]byte{0x04}, []byte("SQLEXPRESS")...), 0x00),
		},
		{
			name:     "name at the 32 byte limit",
			instance: strings.Repeat("A", 32),
			want:     append(append([]byte{0x04}, bytes.Repeat([]byte{'A'}, 32)...), 0x00),
		},
		{
			name:     "name over the 32 byte limit",
			instance: strings.Repeat("A", 33),
			wantErr:  true,
		},
		{
			name:     "name not representable in codepage",
			instance: "инстанс",
			wantErr:  true,
		},
	}

	c := codec.Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildUnicastInstance(c, tt.instance)

			if (err != nil) != tt.wantErr {
				t.Fatalf("BuildUnicastInstance() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !bytes.Equal(got, tt.want) {
				t.Errorf("BuildUnicastInstance() = % x, want % x", got, tt.want)
			}
		})
	}
}

func TestBuildUnicastDAC(t *testing.T) {
	c := codec.Default()

	got, err := BuildUnicastDAC(c, "SQLEXPRESS")
	if err != nil {
		t.Fatalf("BuildUnicastDAC() error = %v", err)
	}

	want := append(append([]byte{0x0f, 0x01}, []byte("SQLEXPRESS")...), 0x00)
	if !bytes.Equal(got, want) {
		t.Errorf("BuildUnicastDAC() = % x, want % x", got, want)
	}

	if _, err := BuildUnicastDAC(c, strings.Repeat("B", 33)); !errors.Is(err, ErrInstanceNameTooLong) {
		t.Errorf("BuildUnicastDAC() long name error = %v, want ErrInstanceNameTooLong", err)
	}
}

func TestValidateInstanceName(t *testing.T) {
	c := codec.Default()

	// "é" encodes to one byte in windows-1252, so 32 of them are exactly at
	// the limit even though the UTF-8 string is 64 bytes long
	if err := ValidateInstanceName(c, strings.Repeat("é", 32)); err != nil {
		t.Errorf("ValidateInstanceName() error = %v for 32 encoded bytes", err)
	}

	if err := ValidateInstanceName(c, strings.Repeat("é", 33)); !errors.Is(err, ErrInstanceNameTooLong) {
		t.Errorf("ValidateInstanceName() error = %v, want ErrInstanceNameTooLong", err)
	}
}
