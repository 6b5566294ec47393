// Package session orchestrates user intent into generation requests and owns
// the ephemeral UI state: mode, prompt, aspect ratio, source image, the
// single in-flight flag, the last error, and the current selection. It is
// the sole mutator of the history store.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/manash/lumina/internal/history"
	"github.com/manash/lumina/pkg/models"
)

var (
	ErrRequestInFlight = errors.New("a generation request is already in flight")
	ErrNotInHistory    = errors.New("no history entry with that id")
)

// Client issues the external generation requests. Exactly one of the two
// operations is used per user action, depending on the mode.
type Client interface {
	GenerateFromText(ctx context.Context, prompt string, ratio models.AspectRatio) (string, error)
	EditImage(ctx context.Context, sourceDataURI, prompt string, ratio models.AspectRatio) (string, error)
}

type Controller struct {
	client  Client
	history *history.Store

	mode        models.Mode
	prompt      string
	aspectRatio models.AspectRatio
	sourceImage string
	inFlight    bool
	lastError   string
	selected    string

	now   func() time.Time
	newID func() string
}

func NewController(client Client, hist *history.Store) *Controller {
	return &Controller{
		client:      client,
		history:     hist,
		mode:        models.ModeCreate,
		aspectRatio: models.DefaultAspectRatio,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

func (c *Controller) Mode() models.Mode               { return c.mode }
func (c *Controller) Prompt() string                  { return c.prompt }
func (c *Controller) AspectRatio() models.AspectRatio { return c.aspectRatio }
func (c *Controller) SourceImage() string             { return c.sourceImage }
func (c *Controller) InFlight() bool                  { return c.inFlight }
func (c *Controller) LastError() string               { return c.lastError }
func (c *Controller) History() *history.Store         { return c.history }

func (c *Controller) SetMode(mode models.Mode) {
	if mode.IsValid() {
		c.mode = mode
	}
}

func (c *Controller) SetPrompt(prompt string) {
	c.prompt = prompt
}

func (c *Controller) SetAspectRatio(ratio models.AspectRatio) error {
	if !ratio.IsValid() {
		return models.ErrInvalidAspectRatio
	}
	c.aspectRatio = ratio
	return nil
}

func (c *Controller) SetSourceImage(dataURI string) {
	c.sourceImage = dataURI
	c.lastError = ""
}

func (c *Controller) ClearSourceImage() {
	c.sourceImage = ""
}

func (c *Controller) ClearError() {
	c.lastError = ""
}

// Selected returns the currently selected history entry, if any.
func (c *Controller) Selected() (models.GeneratedImage, bool) {
	if c.selected == "" {
		return models.GeneratedImage{}, false
	}
	return c.history.Get(c.selected)
}

// Select marks a history entry as current.
func (c *Controller) Select(id string) error {
	if _, ok := c.history.Get(id); !ok {
		return ErrNotInHistory
	}
	c.selected = id
	return nil
}

// Generate runs one create or edit request for the current state.
//
// The preconditions are checked locally before any request goes out: a
// non-empty prompt, and a source image when the mode is edit. On success the
// result is prepended to history, selected, and the prompt cleared; on
// failure the message is recorded and the prompt kept so the user can retry.
func (c *Controller) Generate(ctx context.Context) (models.GeneratedImage, error) {
	if c.inFlight {
		return models.GeneratedImage{}, ErrRequestInFlight
	}

	if strings.TrimSpace(c.prompt) == "" {
		return models.GeneratedImage{}, models.ErrEmptyPrompt
	}
	if c.mode == models.ModeEdit && c.sourceImage == "" {
		c.lastError = models.ErrNoSourceImage.Error()
		return models.GeneratedImage{}, models.ErrNoSourceImage
	}

	c.inFlight = true
	defer func() { c.inFlight = false }()

	var url string
	var err error
	if c.mode == models.ModeEdit {
		url, err = c.client.EditImage(ctx, c.sourceImage, c.prompt, c.aspectRatio)
	} else {
		url, err = c.client.GenerateFromText(ctx, c.prompt, c.aspectRatio)
	}
	if err != nil {
		c.lastError = err.Error()
		return models.GeneratedImage{}, err
	}

	entry := models.GeneratedImage{
		ID:        c.newID(),
		URL:       url,
		Prompt:    c.prompt,
		Kind:      c.mode.Kind(),
		Timestamp: c.now().UnixMilli(),
	}
	if c.mode == models.ModeEdit {
		entry.OriginalImage = c.sourceImage
	}

	// History is a cache; a failed write must not fail the generation.
	_ = c.history.InsertFront(entry)

	c.selected = entry.ID
	c.prompt = ""
	c.lastError = ""
	return entry, nil
}

// DeleteEntry removes a history entry. Deleting the selected entry clears
// the selection so it never references a removed entry.
func (c *Controller) DeleteEntry(id string) error {
	if err := c.history.Remove(id); err != nil {
		return err
	}
	if c.selected == id {
		c.selected = ""
	}
	return nil
}
