package notify

import (
	"context"

	"github.com/hammamikhairi/ottopos/internal/chime"
	"github.com/hammamikhairi/ottopos/internal/domain"
	"github.com/hammamikhairi/ottopos/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*ChimeNotifier)(nil)

// ChimeNotifier forwards every notice to a text notifier and additionally
// chimes on urgent ones.
type ChimeNotifier struct {
	text  domain.Notifier
	sound chime.Sounder
	log   *logger.Logger
}

// NewChimeNotifier wraps text with an audible alert.
func NewChimeNotifier(text domain.Notifier, sound chime.Sounder, log *logger.Logger) *ChimeNotifier {
	return &ChimeNotifier{text: text, sound: sound, log: log}
}

// Notify passes the message through without sound.
func (n *ChimeNotifier) Notify(ctx context.Context, message string) error {
	return n.text.Notify(ctx, message)
}

// NotifyUrgent passes the message through and plays the chime.
func (n *ChimeNotifier) NotifyUrgent(ctx context.Context, message string) error {
	if err := n.text.NotifyUrgent(ctx, message); err != nil {
		return err
	}
	n.log.Debug("chime for %q", message)
	n.sound.Chime()
	return nil
}
