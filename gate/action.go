package gate

// Action describes the kind of operation a user wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionList   Action = "list"
	ActionCreate Action = "create"

	// Workflow actions on indicator values.
	ActionSubmit   Action = "submit"
	ActionValidate Action = "validate"
	ActionReject   Action = "reject"

	// ActionConsolidate reads consolidated views.
	ActionConsolidate Action = "consolidate"
)
