// SPDX-License-Identifier: GPL-3.0-or-later
package triage

import (
	"fmt"
	"math"

	"github.com/CrawX/go-mail-receptionist/domain"
)

type ConfigFunc func(c *configuration) error

func DryRun() ConfigFunc {
	return func(c *configuration) error {
		c.DryRun = true

		return nil
	}
}

func Source(folder string) ConfigFunc {
	return func(c *configuration) error {
		if len(folder) == 0 {
			return fmt.Errorf("Source folder cannot be null")
		}

		c.SourceFolder = folder
		return nil
	}
}

func Threshold(threshold float64) ConfigFunc {
	return func(c *configuration) error {
		if threshold < 0 || threshold > 100 || math.IsNaN(threshold) {
			return fmt.Errorf("Threshold must be between 0 and 100, got %v", threshold)
		}

		c.Threshold = threshold
		return nil
	}
}

func MoveTo(folder string) ConfigFunc {
	return func(c *configuration) error {
		if len(folder) == 0 {
			return fmt.Errorf("MoveTo folder cannot be null")
		}

		c.MoveTo = folder
		return nil
	}
}

func Tag(tag string) ConfigFunc {
	return func(c *configuration) error {
		if len(tag) == 0 {
			return fmt.Errorf("Tag cannot be null")
		}

		c.Tag = tag
		return nil
	}
}

func AutoReply(template string) ConfigFunc {
	return func(c *configuration) error {
		if len(template) == 0 {
			return fmt.Errorf("AutoReply template cannot be null")
		}

		c.AutoReply = true
		c.ReplyTemplate = template
		return nil
	}
}

// ReplyGuard vetoes auto replies to mails the checker considers spam.
func ReplyGuard(checker domain.SpamChecker) ConfigFunc {
	return func(c *configuration) error {
		if checker == nil {
			return fmt.Errorf("ReplyGuard checker cannot be null")
		}

		c.ReplyGuard = checker
		return nil
	}
}

func Notify(notifier domain.Notifier) ConfigFunc {
	return func(c *configuration) error {
		if notifier == nil {
			return fmt.Errorf("Notify notifier cannot be null")
		}

		c.Notifier = notifier
		return nil
	}
}

// ExampleFolders are created during preflight so staff can fill them.
func ExampleFolders(folders ...string) ConfigFunc {
	return func(c *configuration) error {
		c.ExampleFolders = append(c.ExampleFolders, folders...)
		return nil
	}
}

type configuration struct {
	DryRun bool

	SourceFolder string
	Threshold    float64

	MoveTo string
	Tag    string

	AutoReply     bool
	ReplyTemplate string
	ReplyGuard    domain.SpamChecker

	Notifier domain.Notifier

	ExampleFolders []string
}

func (c *configuration) validate() error {
	if len(c.MoveTo) == 0 && len(c.Tag) == 0 {
		return fmt.Errorf("%w: MoveTo or Tag must be set", domain.ErrInvalidConfig)
	}
	return nil
}
