package domain

// IntentType classifies what the operator wants to do at the order prompt.
type IntentType int

const (
	IntentUnknown IntentType = iota
	IntentNewOrder
	IntentAppendOrder
	IntentSelectTable
	IntentSetName
	IntentSetPhone
	IntentSetGuests
	IntentShowMenu
	IntentAddItem
	IntentRemoveItem
	IntentShowCart
	IntentSubmit
	IntentCancel
	IntentHelp
	IntentQuit
)

// String returns a human-readable intent type.
func (i IntentType) String() string {
	switch i {
	case IntentNewOrder:
		return "new_order"
	case IntentAppendOrder:
		return "append_order"
	case IntentSelectTable:
		return "select_table"
	case IntentSetName:
		return "set_name"
	case IntentSetPhone:
		return "set_phone"
	case IntentSetGuests:
		return "set_guests"
	case IntentShowMenu:
		return "show_menu"
	case IntentAddItem:
		return "add_item"
	case IntentRemoveItem:
		return "remove_item"
	case IntentShowCart:
		return "show_cart"
	case IntentSubmit:
		return "submit"
	case IntentCancel:
		return "cancel"
	case IntentHelp:
		return "help"
	case IntentQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Intent represents a parsed operator action.
type Intent struct {
	Type    IntentType
	Payload string   // raw argument text after the keyword
	Args    []string // Payload split on whitespace
}
