package ledger

// CommandKind enumerates every button press the conversation understands.
type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdNewTransaction
	CmdMainMenu
	CmdViewSummary
	CmdAnalytics
	CmdSettings
	CmdMethodManual
	CmdMethodPhoto
	CmdBackToMethod
	CmdBackToType
	CmdBackToCategory
	CmdPickType
	CmdPickCategory
	CmdSkipDescription
	CmdKeepDescription
	CmdRetrySave
)

// Command is a state-machine input decoded from a callback button. Arg
// carries the payload for parameterized commands (type name, category name).
type Command struct {
	Kind CommandKind
	Arg  string
}

// commandTags is the fixed dispatch table mapping callback keys to commands.
// Parameterized keys ("type", "category") take the payload as Arg.
var commandTags = map[string]CommandKind{
	TagNewTransaction:  CmdNewTransaction,
	TagMainMenu:        CmdMainMenu,
	TagViewSummary:     CmdViewSummary,
	TagAnalytics:       CmdAnalytics,
	TagSettings:        CmdSettings,
	TagMethodManual:    CmdMethodManual,
	TagMethodPhoto:     CmdMethodPhoto,
	TagBackToMethod:    CmdBackToMethod,
	TagBackToType:      CmdBackToType,
	TagBackToCategory:  CmdBackToCategory,
	TagPickType:        CmdPickType,
	TagPickCategory:    CmdPickCategory,
	TagSkipDescription: CmdSkipDescription,
	TagKeepDescription: CmdKeepDescription,
	TagRetrySave:       CmdRetrySave,
}

// Callback tags understood by the dispatch table. The transport renders
// these as button identifiers and feeds pressed ones back into ParseCommand.
const (
	TagNewTransaction  = "new_transaction"
	TagMainMenu        = "back_to_menu"
	TagViewSummary     = "view_summary"
	TagAnalytics       = "analytics"
	TagSettings        = "settings"
	TagMethodManual    = "method_manual"
	TagMethodPhoto     = "method_photo"
	TagBackToMethod    = "back_to_method"
	TagBackToType      = "back_to_type"
	TagBackToCategory  = "back_to_category"
	TagPickType        = "type"
	TagPickCategory    = "category"
	TagSkipDescription = "skip_description"
	TagKeepDescription = "keep_description"
	TagRetrySave       = "retry_save"
)

// ParseCommand resolves a callback key and payload into a Command. Unknown
// keys report ok=false so the transport can answer with its fallback.
func ParseCommand(key, payload string) (Command, bool) {
	kind, ok := commandTags[key]
	if !ok {
		return Command{}, false
	}
	return Command{Kind: kind, Arg: payload}, true
}

// Choice is one selectable button offered with a prompt. Key and Data
// round-trip through the chat platform and come back via ParseCommand.
type Choice struct {
	Label string
	Key   string
	Data  string
}

// Reply is the output directive produced by the state machine: a prompt plus
// an optional ordered list of choices. An empty Reply means "say nothing".
type Reply struct {
	Text    string
	Choices []Choice
}

// Empty reports whether the reply carries nothing to send.
func (r Reply) Empty() bool {
	return r.Text == "" && len(r.Choices) == 0
}
