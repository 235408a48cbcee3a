package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hammamikhairi/ottopos/internal/api"
	"github.com/hammamikhairi/ottopos/internal/clock"
	"github.com/hammamikhairi/ottopos/internal/command"
	"github.com/hammamikhairi/ottopos/internal/config"
	"github.com/hammamikhairi/ottopos/internal/display"
	"github.com/hammamikhairi/ottopos/internal/domain"
	"github.com/hammamikhairi/ottopos/internal/logger"
	"github.com/hammamikhairi/ottopos/internal/menu"
	"github.com/hammamikhairi/ottopos/internal/notify"
	"github.com/hammamikhairi/ottopos/internal/session"
)

func runOrder(cfg config.Config, log *logger.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var dishes domain.MenuSource
	if cfg.Menu.File != "" {
		src, err := menu.LoadFile(cfg.Menu.File, log.Named("menu"))
		if err != nil {
			return err
		}
		dishes = src
	} else {
		dishes = menu.NewMemorySource(log.Named("menu"))
	}

	client := api.NewClient(cfg.BaseURL, log, api.WithHTTPTimeout(cfg.HTTPTimeout))

	// The controller is created before the UI it reports to, so its
	// notifier prints through a late-bound UI.
	var ui *display.UI
	notifier := notify.NewCLINotifier(log, func(format string, a ...any) { ui.Printf(format, a...) },
		notify.WithTimestamps(clock.Real()))
	ctl := session.New(client, log.Named("session"),
		session.WithCreatedBy(cfg.Session.CreatedBy),
		session.WithPaymentMethod(cfg.Session.PaymentMethod),
		session.WithNotifier(notifier),
	)
	ui = display.NewUI(ctl)

	app := &orderApp{
		ctl:    ctl,
		menu:   dishes,
		parser: command.NewKeywordParser(log.Named("command")),
		log:    log,
		ui:     ui,
	}

	fmt.Println(display.RenderBanner())
	fmt.Println(display.BannerStyle.Render("  Type 'help' for commands, 'quit' to exit."))
	fmt.Println()

	go func() {
		ui.WaitReady()
		app.run(ctx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal until quit.
	err := ui.Run()
	cancel()
	ctl.Teardown()
	return err
}

type orderApp struct {
	ctl    *session.Controller
	menu   domain.MenuSource
	parser domain.CommandParser
	log    *logger.Logger
	ui     *display.UI
}

func (a *orderApp) run(ctx context.Context) {
	a.ui.PrintInfo("Type 'new' or 'table <n>' to start an order, 'append <order id>' to add to one.")

	inputs := a.ui.InputChan()
	for {
		var input string
		select {
		case <-ctx.Done():
			return
		case <-a.ui.QuitChan():
			return
		case input = <-inputs:
		}

		intent, err := a.parser.Parse(ctx, input)
		if err != nil {
			a.log.Error("parsing input: %v", err)
			continue
		}
		a.log.Debug("intent: %s (payload=%q)", intent.Type, intent.Payload)

		if intent.Type == domain.IntentQuit {
			a.ctl.Teardown()
			return
		}
		a.handleIntent(ctx, intent)
	}
}

func (a *orderApp) handleIntent(ctx context.Context, intent *domain.Intent) {
	switch intent.Type {
	case domain.IntentHelp:
		a.showHelp()
	case domain.IntentNewOrder:
		a.ctl.StartNew()
		a.ui.PrintOK("New order started.")
	case domain.IntentAppendOrder:
		a.appendOrder(ctx, intent.Payload)
	case domain.IntentSelectTable:
		a.selectTable(intent.Payload)
	case domain.IntentSetName:
		a.setCustomer(func(v *session.View) { v.Session.CustomerName = intent.Payload })
	case domain.IntentSetPhone:
		a.setCustomer(func(v *session.View) { v.Session.Phone = intent.Payload })
	case domain.IntentSetGuests:
		n, err := strconv.Atoi(intent.Payload)
		if err != nil || n < 0 {
			a.ui.PrintUrgent(fmt.Sprintf("Guests must be a number, got %q.", intent.Payload))
			return
		}
		a.setCustomer(func(v *session.View) { v.Session.Guests = n })
	case domain.IntentShowMenu:
		a.showMenu(ctx)
	case domain.IntentAddItem:
		a.addItem(ctx, intent.Args)
	case domain.IntentRemoveItem:
		a.removeItem(intent.Payload)
	case domain.IntentShowCart:
		a.showCart()
	case domain.IntentSubmit:
		a.submit(ctx, intent.Payload)
	case domain.IntentCancel:
		a.ctl.Cancel()
		a.ui.PrintOK("Order discarded.")
	case domain.IntentUnknown:
		a.ui.PrintHint(fmt.Sprintf("Didn't catch %q. Type 'help' for commands.", intent.Payload))
	}
}

// appendOrder loads the order in the background; the status bar shows the
// loading state meanwhile.
func (a *orderApp) appendOrder(ctx context.Context, id string) {
	if id == "" {
		a.ui.PrintHint("Usage: append <order id>")
		return
	}
	a.ui.PrintHint(fmt.Sprintf("Loading order %s...", id))
	go func() {
		err := a.ctl.Resume(ctx, id)
		switch {
		case errors.Is(err, domain.ErrStaleResponse):
			a.log.Debug("order %s load superseded", id)
		case err != nil:
			a.ui.PrintUrgent(fmt.Sprintf("Could not load order %s: %v", id, err))
		default:
			v := a.ctl.Snapshot()
			a.ui.PrintOK(fmt.Sprintf("Adding to order %s (table %s, %d items already sent).", id, orDash(v.Session.LockedTable), len(v.Items)))
		}
	}()
}

func (a *orderApp) selectTable(table string) {
	if table == "" {
		a.ui.PrintHint("Usage: table <number>")
		return
	}
	if !a.ctl.SelectTable(table) {
		v := a.ctl.Snapshot()
		a.ui.PrintHint(fmt.Sprintf("This order belongs to table %s; the table cannot be changed.", v.Session.LockedTable))
		return
	}
	a.ui.PrintOK("Table " + table + ".")
}

func (a *orderApp) setCustomer(edit func(*session.View)) {
	v := a.ctl.Snapshot()
	edit(&v)
	if err := a.ctl.SetCustomer(v.Session.CustomerName, v.Session.Phone, v.Session.Guests); err != nil {
		a.ui.PrintUrgent(err.Error())
		return
	}
	s := a.ctl.Snapshot().Session
	a.ui.PrintOK(fmt.Sprintf("Customer: %s, phone %s, %d guests.", orDash(s.CustomerName), orDash(s.Phone), s.Guests))
}

func (a *orderApp) showMenu(ctx context.Context) {
	dishes, err := a.menu.List(ctx)
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error loading menu: %v", err))
		return
	}
	category := ""
	for i, d := range dishes {
		if d.CategoryID != category {
			category = d.CategoryID
			a.ui.Println("")
			a.ui.PrintInfo(strings.ToUpper(category))
		}
		a.ui.PrintHint(fmt.Sprintf("[%2d] %-28s %8s", i+1, d.Name, d.UnitPrice.StringFixed(2)))
	}
	a.ui.Println("")
}

// addArgs splits "add <dish> [qty] [notes...]".
func addArgs(args []string) (query string, qty int, notes string, err error) {
	if len(args) == 0 {
		return "", 0, "", errors.New("usage: add <dish> [qty] [notes]")
	}
	query, qty = args[0], 1
	rest := args[1:]
	if len(rest) > 0 {
		if n, convErr := strconv.Atoi(strings.TrimPrefix(strings.ToLower(rest[0]), "x")); convErr == nil {
			qty = n
			rest = rest[1:]
		}
	}
	return query, qty, strings.Join(rest, " "), nil
}

func (a *orderApp) addItem(ctx context.Context, args []string) {
	query, qty, notes, err := addArgs(args)
	if err != nil {
		a.ui.PrintHint(err.Error())
		return
	}
	dish, err := menu.Find(ctx, a.menu, query)
	if err != nil {
		a.ui.PrintUrgent(err.Error())
		return
	}

	item, err := a.ctl.AddItem(domain.CartItem{
		Name:       dish.Name,
		Quantity:   qty,
		UnitPrice:  dish.UnitPrice,
		DishID:     dish.ID,
		CategoryID: dish.CategoryID,
		Notes:      notes,
	})
	switch {
	case errors.Is(err, domain.ErrHydrating):
		a.ui.PrintHint("Still loading the order, try again in a moment.")
	case errors.Is(err, domain.ErrInvalidQuantity):
		a.ui.PrintUrgent("Quantity must be at least 1.")
	case err != nil:
		a.ui.PrintUrgent(err.Error())
	default:
		a.ui.PrintOK(fmt.Sprintf("Added %dx %s (%s).", item.Quantity, item.Name, item.Price.StringFixed(2)))
	}
}

// removeItem accepts a 1-based cart position or a line id.
func (a *orderApp) removeItem(ref string) {
	if ref == "" {
		a.ui.PrintHint("Usage: remove <line number>")
		return
	}
	id := ref
	if n, err := strconv.Atoi(ref); err == nil {
		items := a.ctl.Snapshot().Items
		if n < 1 || n > len(items) {
			a.ui.PrintUrgent(fmt.Sprintf("There is no line %d in the cart.", n))
			return
		}
		id = items[n-1].ID
	}

	err := a.ctl.RemoveItem(id)
	switch {
	case errors.Is(err, domain.ErrRemovalLocked):
		a.ui.PrintHint("Items cannot be removed while adding to an existing order.")
	case errors.Is(err, domain.ErrNoSession):
		a.ui.PrintHint("No order in progress.")
	case errors.Is(err, domain.ErrNotFound):
		a.ui.PrintUrgent(fmt.Sprintf("No cart line %q.", ref))
	case err != nil:
		a.ui.PrintUrgent(err.Error())
	default:
		a.ui.PrintOK("Removed.")
	}
}

func (a *orderApp) showCart() {
	v := a.ctl.Snapshot()
	if len(v.Items) == 0 {
		a.ui.PrintHint("The cart is empty.")
		return
	}
	for i, it := range v.Items {
		line := fmt.Sprintf("%2d. %dx %-24s %8s", i+1, it.Quantity, it.Name, it.Price.StringFixed(2))
		if it.Notes != "" {
			line += "  (" + it.Notes + ")"
		}
		if it.Existing {
			a.ui.PrintHint(line + "  sent")
		} else {
			a.ui.PrintInfo(line)
		}
	}
	a.ui.PrintInfo(fmt.Sprintf("    Total %31s", v.Total.StringFixed(2)))
}

func (a *orderApp) submit(ctx context.Context, payment string) {
	if payment != "" {
		a.ctl.SetPayment(payment)
	}
	created, err := a.ctl.Submit(ctx)
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		a.ui.PrintHint("Nothing new to send.")
	case errors.Is(err, domain.ErrHydrating):
		a.ui.PrintHint("Still loading the order, try again in a moment.")
	case errors.Is(err, domain.ErrNoSession), errors.Is(err, domain.ErrSessionClosed):
		a.ui.PrintHint("No order in progress.")
	case err != nil:
		a.ui.PrintUrgent(fmt.Sprintf("Order not sent: %v", err))
	default:
		a.ui.PrintOK(fmt.Sprintf("Order %s sent to the kitchen.", created.ID))
	}
}

func (a *orderApp) showHelp() {
	a.ui.PrintInfo("Commands:")
	a.ui.PrintHint("  new                      Start a new order")
	a.ui.PrintHint("  append <order id>        Add items to an existing order")
	a.ui.PrintHint("  table <n>                Set the table")
	a.ui.PrintHint("  name / phone / guests    Set customer details")
	a.ui.PrintHint("  menu                     List dishes")
	a.ui.PrintHint("  add <dish> [qty] [notes] Add a dish by number, id or name")
	a.ui.PrintHint("  <n>                      Add one of menu dish n")
	a.ui.PrintHint("  remove <line>            Remove a cart line")
	a.ui.PrintHint("  cart                     Show the cart")
	a.ui.PrintHint("  submit [payment]         Send the order")
	a.ui.PrintHint("  cancel                   Discard the order")
	a.ui.PrintHint("  quit                     Exit")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
