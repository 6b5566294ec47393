package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	ErrEmptyPrompt        = errors.New("prompt cannot be empty")
	ErrNoSourceImage      = errors.New("no source image selected for editing")
	ErrInvalidAspectRatio = errors.New("invalid aspect ratio")
	ErrInvalidImageURL    = errors.New("image URL must be a data URI with a payload")
	ErrMissingID          = errors.New("image entry has no id")
)

type AspectRatio string

const (
	RatioSquare           AspectRatio = "1:1"
	RatioPortrait         AspectRatio = "3:4"
	RatioLandscape        AspectRatio = "4:3"
	RatioTallPortrait     AspectRatio = "9:16"
	RatioWideLandscape    AspectRatio = "16:9"
	DefaultAspectRatio                = RatioSquare
)

func ValidAspectRatios() []AspectRatio {
	return []AspectRatio{RatioSquare, RatioPortrait, RatioLandscape, RatioTallPortrait, RatioWideLandscape}
}

func (r AspectRatio) IsValid() bool {
	return slices.Contains(ValidAspectRatios(), r)
}

func (r AspectRatio) String() string {
	return string(r)
}

func ParseAspectRatio(s string) (AspectRatio, error) {
	r := AspectRatio(s)
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q (valid: %v)", ErrInvalidAspectRatio, s, ValidAspectRatios())
	}
	return r, nil
}

// Mode is the user-facing intent: create a new image or edit an existing one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

func (m Mode) IsValid() bool {
	return m == ModeCreate || m == ModeEdit
}

// Kind is the recorded operation on a history entry. It is the persisted
// counterpart of Mode: ModeCreate produces KindCreation entries.
type Kind string

const (
	KindCreation Kind = "creation"
	KindEdit     Kind = "edit"
)

func (m Mode) Kind() Kind {
	if m == ModeEdit {
		return KindEdit
	}
	return KindCreation
}

// GeneratedImage is one successful generation or edit. JSON field names match
// the persisted history format and must not change.
type GeneratedImage struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Prompt        string `json:"prompt"`
	Kind          Kind   `json:"type"`
	Timestamp     int64  `json:"timestamp"`
	OriginalImage string `json:"originalImage,omitempty"`
}

// Time converts the millisecond timestamp to a time.Time.
func (g *GeneratedImage) Time() time.Time {
	return time.UnixMilli(g.Timestamp)
}

// Validate checks the entry invariants: a non-empty id, a data-URI payload,
// and a source image present exactly when the entry is an edit.
func (g *GeneratedImage) Validate() error {
	if g.ID == "" {
		return ErrMissingID
	}
	if !IsDataURI(g.URL) {
		return ErrInvalidImageURL
	}
	if g.Kind == KindEdit && g.OriginalImage == "" {
		return fmt.Errorf("edit entry %s has no original image", g.ID)
	}
	if g.Kind != KindEdit && g.OriginalImage != "" {
		return fmt.Errorf("%s entry %s carries an original image", g.Kind, g.ID)
	}
	return nil
}

// IsDataURI reports whether s looks like a base64 data URI with a non-empty
// payload.
func IsDataURI(s string) bool {
	if !strings.HasPrefix(s, "data:") {
		return false
	}
	i := strings.Index(s, ";base64,")
	if i < 0 {
		return false
	}
	return len(s) > i+len(";base64,")
}
