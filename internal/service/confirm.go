package service

// Confirmation prompts shown before destructive actions.
const (
	PromptLeaveCommunity = "Bu topluluktan ayrılmak istediğinizden emin misiniz?"
	PromptClearChat      = "Tüm sohbet geçmişini temizlemek istediğinizden emin misiniz?"
)

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(prompt string) bool {
	if f == nil {
		return false
	}
	return f(prompt)
}

// Answer is a Confirmer with a fixed reply, used when the browser already asked.
type Answer bool

// Confirm implements Confirmer.
func (a Answer) Confirm(string) bool {
	return bool(a)
}
