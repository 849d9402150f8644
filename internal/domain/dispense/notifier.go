package dispense

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/clinicore/pharmacy/internal/domain/inventory"
	"github.com/clinicore/pharmacy/internal/platform/notification"
)

// Notifier receives advisory signals after a commit. Delivery is best
// effort; failures never affect the committed transaction.
type Notifier interface {
	DispenseCommitted(ctx context.Context, t *Transaction)
	ReorderAdvised(ctx context.Context, sig *inventory.ReorderSignal)
}

// NopNotifier discards all signals.
type NopNotifier struct{}

func (NopNotifier) DispenseCommitted(context.Context, *Transaction)          {}
func (NopNotifier) ReorderAdvised(context.Context, *inventory.ReorderSignal) {}

// AlertNotifier renders signals through the notification templates and
// sends them to the pharmacy operations recipient.
type AlertNotifier struct {
	manager   *notification.Manager
	recipient string
	logger    zerolog.Logger
}

func NewAlertNotifier(manager *notification.Manager, recipient string, logger zerolog.Logger) *AlertNotifier {
	return &AlertNotifier{manager: manager, recipient: recipient, logger: logger}
}

func (n *AlertNotifier) DispenseCommitted(ctx context.Context, t *Transaction) {
	_, err := n.manager.SendFromTemplate(ctx, "dispense-ready", map[string]string{
		"medicine": t.MedicineID.String(),
	}, n.recipient)
	if err != nil {
		n.logger.Warn().Err(err).Str("token", t.Token).Msg("dispense notification failed")
	}
}

func (n *AlertNotifier) ReorderAdvised(ctx context.Context, sig *inventory.ReorderSignal) {
	_, err := n.manager.SendFromTemplate(ctx, "reorder-alert", map[string]string{
		"medicine":      sig.MedicineName,
		"on_hand":       strconv.Itoa(sig.OnHand),
		"reorder_level": strconv.Itoa(sig.ReorderLevel),
		"suggested":     strconv.Itoa(sig.Suggested),
	}, n.recipient)
	if err != nil {
		n.logger.Warn().Err(err).Str("medicine", sig.MedicineName).Msg("reorder notification failed")
	}
}
