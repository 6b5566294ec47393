package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestAspectRatio_IsValid(t *testing.T) {
	tests := []struct {
		ratio string
		want  bool
	}{
		{"1:1", true},
		{"3:4", true},
		{"4:3", true},
		{"9:16", true},
		{"16:9", true},
		{"2:1", false},
		{"", false},
		{"16x9", false},
	}

	for _, tt := range tests {
		t.Run(tt.ratio, func(t *testing.T) {
			if got := AspectRatio(tt.ratio).IsValid(); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.ratio, got, tt.want)
			}
		})
	}
}

func TestParseAspectRatio(t *testing.T) {
	if _, err := ParseAspectRatio("1:1"); err != nil {
		t.Errorf("ParseAspectRatio(1:1) error = %v", err)
	}
	if _, err := ParseAspectRatio("5:4"); err == nil {
		t.Error("ParseAspectRatio(5:4) expected error")
	}
}

func TestMode_Kind(t *testing.T) {
	if got := ModeCreate.Kind(); got != KindCreation {
		t.Errorf("ModeCreate.Kind() = %v, want %v", got, KindCreation)
	}
	if got := ModeEdit.Kind(); got != KindEdit {
		t.Errorf("ModeEdit.Kind() = %v, want %v", got, KindEdit)
	}
}

func TestGeneratedImage_JSONFieldNames(t *testing.T) {
	img := GeneratedImage{
		ID:            "id-1",
		URL:           "data:image/png;base64,Zm9vYmFy",
		Prompt:        "a red bicycle",
		Kind:          KindEdit,
		Timestamp:     1700000000000,
		OriginalImage: "data:image/png;base64,c3Jj",
	}

	data, err := json.Marshal(img)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	// The persisted format is fixed; renaming a field breaks old histories.
	for _, field := range []string{`"id"`, `"url"`, `"prompt"`, `"type":"edit"`, `"timestamp"`, `"originalImage"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("Marshal() = %s, missing %s", data, field)
		}
	}

	var got GeneratedImage
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got != img {
		t.Errorf("round trip = %+v, want %+v", got, img)
	}
}

func TestGeneratedImage_OriginalImageOmitted(t *testing.T) {
	img := GeneratedImage{ID: "id-1", URL: "data:image/png;base64,Zm9v", Kind: KindCreation}

	data, err := json.Marshal(img)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "originalImage") {
		t.Errorf("Marshal() = %s, originalImage should be omitted for creations", data)
	}
}

func TestGeneratedImage_Validate(t *testing.T) {
	valid := GeneratedImage{
		ID:        "id-1",
		URL:       "data:image/png;base64,Zm9vYmFy",
		Prompt:    "p",
		Kind:      KindCreation,
		Timestamp: time.Now().UnixMilli(),
	}

	tests := []struct {
		name    string
		mutate  func(*GeneratedImage)
		wantErr bool
	}{
		{"valid creation", func(g *GeneratedImage) {}, false},
		{"valid edit", func(g *GeneratedImage) {
			g.Kind = KindEdit
			g.OriginalImage = "data:image/png;base64,c3Jj"
		}, false},
		{"missing id", func(g *GeneratedImage) { g.ID = "" }, true},
		{"empty url", func(g *GeneratedImage) { g.URL = "" }, true},
		{"url without payload", func(g *GeneratedImage) { g.URL = "data:image/png;base64," }, true},
		{"url not a data uri", func(g *GeneratedImage) { g.URL = "https://example.com/a.png" }, true},
		{"edit without source", func(g *GeneratedImage) { g.Kind = KindEdit }, true},
		{"creation with source", func(g *GeneratedImage) { g.OriginalImage = "data:image/png;base64,c3Jj" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := valid
			tt.mutate(&img)
			err := img.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsDataURI(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"data:image/png;base64,Zm9v", true},
		{"data:image/jpeg;base64,x", true},
		{"data:image/png;base64,", false},
		{"Zm9v", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsDataURI(tt.in); got != tt.want {
			t.Errorf("IsDataURI(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
