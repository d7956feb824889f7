// Package speech turns the final sentiment narrative into a translated MP3
// summary using the public Google translate and text-to-speech endpoints.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/logger"
	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// ErrEmptyText is returned when there is nothing to speak.
var ErrEmptyText = errors.New("speech: empty text")

// Converter translates text and writes it to an MP3 file.
type Converter struct {
	language   string
	dir        string
	detector   *Detector
	translator *Translator
	tts        *Synthesizer
	log        logrus.FieldLogger
}

// NewConverter prepares the output directory and builds the HTTP clients.
func NewConverter(cfg config.AudioConfig, log logrus.FieldLogger) (*Converter, error) {
	if err := PrepareDir(cfg.OutputDir, cfg.CleanOnStart); err != nil {
		return nil, err
	}
	lang := strings.ToLower(cfg.Language)
	return &Converter{
		language:   lang,
		dir:        cfg.OutputDir,
		detector:   NewDetector(),
		translator: NewTranslator(cfg.TranslateURL, cfg.Timeout()),
		tts:        NewSynthesizer(cfg.TTSURL, cfg.Timeout()),
		log:        logger.OrDiscard(log),
	}, nil
}

// PrepareDir creates dir, wiping its previous contents first when clean
// is set.
func PrepareDir(dir string, clean bool) error {
	if clean {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("clean audio dir: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}
	return nil
}

// Dir is the directory audio files are written to.
func (c *Converter) Dir() string { return c.dir }

// Convert speaks text in the configured language and returns the MP3 path.
// Any failure yields a degraded outcome with an empty path.
func (c *Converter) Convert(ctx context.Context, text, company string) models.Outcome[string] {
	path, err := c.convert(ctx, text, company)
	if err != nil {
		c.log.WithError(err).WithField("company", company).Warn("audio conversion failed")
		return models.Degrade("", "audio: "+err.Error())
	}
	c.log.WithFields(logrus.Fields{"company": company, "path": path}).Info("audio saved")
	return models.Ok(path)
}

func (c *Converter) convert(ctx context.Context, text, company string) (string, error) {
	text = utils.CollapseSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}

	if detected, ok := c.detector.Detect(text); !ok || detected != c.language {
		translated, err := c.translator.Translate(ctx, text, c.language)
		if err != nil {
			return "", err
		}
		text = translated
	}

	audio, err := c.tts.Synthesize(ctx, text, c.language)
	if err != nil {
		return "", err
	}

	path := filepath.Join(c.dir, fileName(company))
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	return path, nil
}

func fileName(company string) string {
	slug := utils.Slugify(company)
	if slug == "" {
		slug = "report"
	}
	return slug + "-" + uuid.NewString() + ".mp3"
}
