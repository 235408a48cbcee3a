package domain

import "context"

// KitchenSource fetches the current set of kitchen-relevant orders. Every
// call returns a full snapshot; there is no push channel.
type KitchenSource interface {
	ListKitchenOrders(ctx context.Context) ([]KitchenOrder, error)
}

// OrderAPI is the slice of the backend the order session needs.
type OrderAPI interface {
	GetOrder(ctx context.Context, id string) (*RemoteOrder, error)
	CreateOrder(ctx context.Context, payload OrderPayload) (*CreatedOrder, error)
}

// SeenStore remembers which kitchen order ids have been observed and in
// which poll cycle they were last present. Implementations can be in-memory
// or backed by something that survives a board restart.
type SeenStore interface {
	// Observe records ids as present in the given cycle and reports which of
	// them had never been observed before.
	Observe(ctx context.Context, ids []string, cycle uint64) (map[string]bool, error)
	// Evict forgets ids whose last observation is older than cycle.
	Evict(ctx context.Context, before uint64) (int, error)
	Len() int
}

// MenuSource provides the dishes an order can be built from.
type MenuSource interface {
	List(ctx context.Context) ([]Dish, error)
	Get(ctx context.Context, id string) (*Dish, error)
}

// CommandParser converts raw user input into structured intents.
type CommandParser interface {
	Parse(ctx context.Context, input string) (*Intent, error)
}

// Notifier delivers messages to the user. Implementations can write to
// the terminal, play a sound, or both.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}

// StatusUpdater moves an order to a new backend status, e.g. when the
// kitchen marks it done.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id, status string) error
}
