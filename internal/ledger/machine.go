package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"log/slog"

	"github.com/Dharshan209/fintrack-bot/internal/logger"
)

// Machine owns per-user conversation sessions and drives the step graph.
//
// Events for different users may be handled concurrently, but events for the
// same user are serialized with a per-user lock: Session mutation is not
// designed to tolerate interleaved writers. The sessions map is the only
// shared mutable resource and only the Machine touches it.
type Machine struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]*sync.Mutex

	recorder *Recorder
}

// NewMachine creates a Machine that saves finished flows via rec.
func NewMachine(rec *Recorder) *Machine {
	return &Machine{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*sync.Mutex),
		recorder: rec,
	}
}

func (m *Machine) userLock(userID int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	return l
}

func (m *Machine) session(userID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[userID]
}

func (m *Machine) createSession(userID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &Session{UserID: userID, Step: StepMethod}
	m.sessions[userID] = s
	return s
}

func (m *Machine) destroySession(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// InFlow reports whether the user currently has an active session.
func (m *Machine) InFlow(userID int64) bool {
	return m.session(userID) != nil
}

// ExpectsPhoto reports whether the user's session is waiting for a receipt
// photo. The transport uses it to skip image download and recognition for
// photos sent outside the flow.
func (m *Machine) ExpectsPhoto(userID int64) bool {
	s := m.session(userID)
	return s != nil && s.Method == MethodPhoto && s.Step == StepPhotoUpload
}

// HandleCommand processes a button press decoded into a Command.
func (m *Machine) HandleCommand(ctx context.Context, userID int64, cmd Command) Reply {
	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()

	// Commands that do not require an active session.
	switch cmd.Kind {
	case CmdNewTransaction:
		m.destroySession(userID)
		s := m.createSession(userID)
		m.logTransition(ctx, s, "flow.start")
		return methodReply()
	case CmdMainMenu:
		m.destroySession(userID)
		return MainMenuReply()
	case CmdViewSummary:
		return stubReply("📊 Feature coming soon! This will show your spending summary.")
	case CmdAnalytics:
		return stubReply("📈 Feature coming soon! This will show detailed analytics.")
	case CmdSettings:
		return stubReply("⚙️ Feature coming soon! This will allow you to customize settings.")
	}

	s := m.session(userID)
	if s == nil {
		return expiredReply()
	}

	switch cmd.Kind {
	case CmdMethodManual:
		if s.Step != StepMethod {
			return m.reprompt(s)
		}
		s.Method = MethodManual
		s.Step = StepType
		m.logTransition(ctx, s, "flow.step")
		return typeReply()

	case CmdMethodPhoto:
		if s.Step != StepMethod {
			return m.reprompt(s)
		}
		s.Method = MethodPhoto
		s.Step = StepPhotoUpload
		m.logTransition(ctx, s, "flow.step")
		return photoUploadReply()

	case CmdBackToMethod:
		if s.Step != StepType {
			return m.reprompt(s)
		}
		s.Step = StepMethod
		s.Type = ""
		s.CategoryName = ""
		m.logTransition(ctx, s, "flow.back")
		return methodReply()

	case CmdBackToType:
		if s.Step != StepCategory && s.Step != StepDescription {
			return m.reprompt(s)
		}
		s.Step = StepType
		s.CategoryName = ""
		m.logTransition(ctx, s, "flow.back")
		return typeReply()

	case CmdBackToCategory:
		if s.Step != StepDescription && s.Step != StepAmount {
			return m.reprompt(s)
		}
		s.Step = StepCategory
		s.CategoryName = ""
		m.logTransition(ctx, s, "flow.back")
		return categoryReply(s.Type)

	case CmdPickType:
		if s.Step != StepType {
			return m.reprompt(s)
		}
		t := TxType(cmd.Arg)
		if !ValidType(t) {
			// Stale or forged keyboard; reset rather than crash.
			return m.integrityFailure(ctx, s, "invalid type tag "+cmd.Arg)
		}
		s.Type = t
		s.CategoryName = ""
		s.Step = StepCategory
		m.logTransition(ctx, s, "flow.step")
		return categoryReply(t)

	case CmdPickCategory:
		if s.Step != StepCategory {
			return m.reprompt(s)
		}
		if _, ok := CategoryOfType(s.Type, cmd.Arg); !ok {
			// Button from a keyboard rendered for a different type.
			return m.integrityFailure(ctx, s, "category not in filtered set: "+cmd.Arg)
		}
		s.CategoryName = cmd.Arg
		if s.Amount > 0 && s.AmountSource == AmountFromPhoto {
			// Amount was pre-filled from the receipt; skip the amount prompt.
			s.Step = StepDescription
			m.logTransition(ctx, s, "flow.step")
			return photoDescriptionReply(s)
		}
		s.Step = StepAmount
		m.logTransition(ctx, s, "flow.step")
		return amountReply()

	case CmdSkipDescription:
		if s.Step != StepDescription {
			return m.reprompt(s)
		}
		s.Description = ""
		return m.save(ctx, s)

	case CmdKeepDescription:
		if s.Step != StepDescription || s.AmountSource != AmountFromPhoto || s.Description == "" {
			return m.reprompt(s)
		}
		return m.save(ctx, s)

	case CmdRetrySave:
		if s.Step != StepSave {
			return m.reprompt(s)
		}
		return m.save(ctx, s)
	}

	return expiredReply()
}

// HandleText processes free text. The second return value reports whether the
// text was consumed: unsolicited chatter outside an active flow, and text at
// steps that do not expect it, produce no reply at all.
func (m *Machine) HandleText(ctx context.Context, userID int64, text string) (Reply, bool) {
	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()

	s := m.session(userID)
	if s == nil {
		return Reply{}, false
	}

	switch s.Step {
	case StepAmount:
		amount, err := ParseAmount(text)
		if err != nil {
			return Reply{Text: "❌ Invalid amount. Please enter a valid positive number:"}, true
		}
		s.Amount = amount
		s.AmountSource = AmountTyped
		s.Step = StepDescription
		m.logTransition(ctx, s, "flow.step")
		return descriptionReply(s), true

	case StepDescription:
		s.Description = text
		return m.save(ctx, s), true
	}

	return Reply{}, false
}

// HandlePhoto processes a photo event whose recognized text has already been
// resolved by the OCR collaborator. found=false means no readable text.
func (m *Machine) HandlePhoto(ctx context.Context, userID int64, recognized string, found bool) Reply {
	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()

	s := m.session(userID)
	if s == nil || s.Method != MethodPhoto || s.Step != StepPhotoUpload {
		return Reply{Text: "❌ Please select \"Photo Entry\" method first from the menu."}
	}

	if !found {
		return Reply{Text: "❌ No readable text found in the image. Please try again or use manual entry."}
	}

	amount, err := ExtractAmount(recognized)
	if err != nil {
		// Nothing is fabricated: the session stays at the upload step.
		return Reply{Text: "❌ Could not extract amount from the image. Please try again or enter manually."}
	}

	s.Amount = amount
	s.AmountSource = AmountFromPhoto
	s.Description = strings.TrimSpace(recognized)
	s.Step = StepType
	m.logTransition(ctx, s, "flow.step")

	return Reply{
		Text: fmt.Sprintf("🧾 Detected Amount: %s\n\n📝 Text:\n%s\n\nWhat type of transaction is this?",
			amount, s.Description),
		Choices: typeChoices(),
	}
}

// save invokes the recorder. On success the session is destroyed; on failure
// it is preserved unchanged so the user can retry without re-entering data.
func (m *Machine) save(ctx context.Context, s *Session) Reply {
	if err := m.recorder.Save(ctx, s); err != nil {
		s.Step = StepSave
		return Reply{
			Text: "❌ Error saving transaction. Please try again.",
			Choices: []Choice{
				{Label: "🔄 Try Again", Key: TagRetrySave},
				{Label: "🏠 Back to Main Menu", Key: TagMainMenu},
			},
		}
	}

	m.destroySession(s.UserID)
	return Reply{
		Text: "✅ Transaction saved successfully!",
		Choices: []Choice{
			{Label: "➕ Add Another Transaction", Key: TagNewTransaction},
			{Label: "🏠 Back to Main Menu", Key: TagMainMenu},
		},
	}
}

// reprompt re-sends the prompt for the session's current step. Used when a
// button from an outdated message is pressed: state is left unchanged.
func (m *Machine) reprompt(s *Session) Reply {
	switch s.Step {
	case StepMethod:
		return methodReply()
	case StepPhotoUpload:
		return photoUploadReply()
	case StepType:
		return typeReply()
	case StepCategory:
		return categoryReply(s.Type)
	case StepAmount:
		return amountReply()
	case StepDescription:
		return descriptionReply(s)
	case StepSave:
		return Reply{
			Text: "❌ Error saving transaction. Please try again.",
			Choices: []Choice{
				{Label: "🔄 Try Again", Key: TagRetrySave},
				{Label: "🏠 Back to Main Menu", Key: TagMainMenu},
			},
		}
	}
	return expiredReply()
}

// integrityFailure handles selections that cannot come from a keyboard the
// machine rendered for this session. The flow is abandoned defensively and
// the user is told to start over.
func (m *Machine) integrityFailure(ctx context.Context, s *Session, reason string) Reply {
	logger.Warn(ctx, "ledger", "flow.integrity",
		slog.String("status", "fail"),
		slog.Int64("user_id", s.UserID),
		slog.String("step", string(s.Step)),
		slog.String("cause", logger.SanitizeLimit(reason, 128)),
	)
	m.destroySession(s.UserID)
	return expiredReply()
}

func (m *Machine) logTransition(ctx context.Context, s *Session, event string) {
	logger.Debug(ctx, "ledger", event,
		slog.String("status", "ok"),
		slog.Int64("user_id", s.UserID),
		slog.String("step", string(s.Step)),
		slog.String("method", string(s.Method)),
		slog.String("tx_type", string(s.Type)),
		slog.String("category", s.CategoryName),
	)
}

// WelcomeReply greets a new user with the main menu.
func WelcomeReply() Reply {
	r := MainMenuReply()
	r.Text = "🌟 Welcome to Finance Tracker Bot!\n\n" +
		"📱 Your personal finance assistant to track expenses, income, and savings.\n\n" +
		"Choose an option below to get started:"
	return r
}

// MainMenuReply is the top-level menu shown outside any flow.
func MainMenuReply() Reply {
	return Reply{
		Text: "🏠 Main Menu",
		Choices: []Choice{
			{Label: "💸 New Transaction", Key: TagNewTransaction},
			{Label: "📊 View Summary", Key: TagViewSummary},
			{Label: "📈 Analytics", Key: TagAnalytics},
			{Label: "⚙️ Settings", Key: TagSettings},
		},
	}
}

func expiredReply() Reply {
	r := MainMenuReply()
	r.Text = "❌ Session expired. Please start again."
	return r
}

func stubReply(text string) Reply {
	return Reply{
		Text:    text,
		Choices: []Choice{{Label: "🔙 Back to Menu", Key: TagMainMenu}},
	}
}

func methodReply() Reply {
	return Reply{
		Text: "💳 New Transaction\n\nHow would you like to add your transaction?",
		Choices: []Choice{
			{Label: "✍️ Manual Entry", Key: TagMethodManual},
			{Label: "📷 Photo Entry", Key: TagMethodPhoto},
			{Label: "🔙 Back to Menu", Key: TagMainMenu},
		},
	}
}

func photoUploadReply() Reply {
	return Reply{Text: "📷 Please upload a photo of your bill or receipt."}
}

func typeChoices() []Choice {
	return []Choice{
		{Label: "💸 Expense", Key: TagPickType, Data: string(TypeExpense)},
		{Label: "💰 Income", Key: TagPickType, Data: string(TypeIncome)},
		{Label: "🏦 Saving", Key: TagPickType, Data: string(TypeSaving)},
		{Label: "🔙 Back", Key: TagBackToMethod},
	}
}

func typeReply() Reply {
	return Reply{
		Text:    "What type of transaction is this?",
		Choices: typeChoices(),
	}
}

func categoryReply(t TxType) Reply {
	cats := CategoriesOfType(t)
	choices := make([]Choice, 0, len(cats)+1)
	for _, c := range cats {
		choices = append(choices, Choice{Label: c.Name, Key: TagPickCategory, Data: c.Name})
	}
	choices = append(choices, Choice{Label: "🔙 Back", Key: TagBackToType})
	return Reply{
		Text:    "Choose a category:",
		Choices: choices,
	}
}

func amountReply() Reply {
	return Reply{Text: "💵 Please enter the amount (numbers only):"}
}

func descriptionReply(s *Session) Reply {
	choices := []Choice{
		{Label: "⏭️ Skip Description", Key: TagSkipDescription},
	}
	if s.AmountSource == AmountFromPhoto && s.Description != "" {
		choices = append(choices, Choice{Label: "📎 Keep Detected Text", Key: TagKeepDescription})
	}
	choices = append(choices, Choice{Label: "🔙 Back", Key: TagBackToCategory})
	return Reply{
		Text:    "📝 Enter a description or note for this transaction (optional):",
		Choices: choices,
	}
}

func photoDescriptionReply(s *Session) Reply {
	r := descriptionReply(s)
	r.Text = fmt.Sprintf("💵 Amount detected: %s\n\nYou can add a description or skip:", s.Amount)
	return r
}
