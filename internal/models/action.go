package models

// Action is the closed set of operations on the student resource. The
// free-text action parameter is parsed into this type at the routing layer;
// nothing downstream ever switches on raw strings.
type Action string

const (
	ActionList   Action = "list"
	ActionNew    Action = "new"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionSearch Action = "search"
	ActionSort   Action = "sort"
	ActionFilter Action = "filter"
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
)

var readActions = map[Action]bool{
	ActionList:   true,
	ActionNew:    true,
	ActionEdit:   true,
	ActionDelete: true,
	ActionSearch: true,
	ActionSort:   true,
	ActionFilter: true,
}

var writeActions = map[Action]bool{
	ActionInsert: true,
	ActionUpdate: true,
}

var adminActions = map[Action]bool{
	ActionNew:    true,
	ActionInsert: true,
	ActionEdit:   true,
	ActionUpdate: true,
	ActionDelete: true,
}

// ParseReadAction resolves an action parameter for GET requests. Unknown or
// absent values default to list, explicitly.
func ParseReadAction(raw string) Action {
	a := Action(raw)
	if readActions[a] {
		return a
	}
	return ActionList
}

// ParseWriteAction resolves an action parameter for POST requests.
func ParseWriteAction(raw string) (Action, bool) {
	a := Action(raw)
	return a, writeActions[a]
}

// AdminOnly reports whether the action mutates state and therefore requires
// the admin role.
func (a Action) AdminOnly() bool {
	return adminActions[a]
}
