package ledger

// Step identifies the current stage of the conversation for a session.
type Step string

const (
	// StepMethod asks how the transaction will be entered.
	StepMethod Step = "method"
	// StepPhotoUpload waits for a receipt photo.
	StepPhotoUpload Step = "photo_upload"
	// StepType asks for the transaction type.
	StepType Step = "type"
	// StepCategory asks for a category matching the chosen type.
	StepCategory Step = "category"
	// StepAmount waits for a typed amount.
	StepAmount Step = "amount"
	// StepDescription waits for an optional description.
	StepDescription Step = "description"
	// StepSave is the retry state entered when persisting failed.
	StepSave Step = "save"
)

// Method is how the transaction is being entered. It is immutable for the
// life of a session: there is no switching between manual and photo mid-flow.
type Method string

const (
	MethodManual Method = "manual"
	MethodPhoto  Method = "photo"
)

// AmountSource records how a session's amount was obtained. The amount step
// is skipped only for AmountFromPhoto, so a future path that happens to leave
// an amount set cannot trigger the skip accidentally.
type AmountSource string

const (
	AmountUnset     AmountSource = ""
	AmountFromPhoto AmountSource = "photo"
	AmountTyped     AmountSource = "typed"
)

// Session tracks one user's in-progress transaction entry. Sessions are
// created, mutated, and destroyed exclusively by the Machine; a session
// exists if and only if the user has an active, unfinished flow.
type Session struct {
	UserID       int64
	Step         Step
	Method       Method
	Type         TxType
	CategoryName string
	Amount       Cents
	AmountSource AmountSource
	Description  string
}
