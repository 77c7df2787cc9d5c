package dialogue

import (
	"sync"

	"github.com/voxsurvey/voxsurvey/internal/util"
)

// PromptCatalog holds every utterance template the agent can speak. Templates
// use text/template syntax; unknown fields render empty. The defaults
// replicate the telephony agent's Urdu script; deployments can override any
// entry through configuration.
//
// Overrides can be applied while sessions are live. Readers take a Snapshot
// per turn instead of touching catalog fields directly.
type PromptCatalog struct {
	mu sync.RWMutex

	Greeting          string `mapstructure:"greeting"`
	IdentityConfirmed string `mapstructure:"identity_confirmed"`
	Intro             string `mapstructure:"intro"`
	AskQuestion       string `mapstructure:"ask_question"`
	AcknowledgeNext   string `mapstructure:"acknowledge_next"`
	RepeatRequest     string `mapstructure:"repeat_request"`
	CallLater         string `mapstructure:"call_later"`
	Closing           string `mapstructure:"closing"`
	Skipping          string `mapstructure:"skipping"`
	TechnicalError    string `mapstructure:"technical_error"`
}

// DefaultPrompts returns the stock Urdu survey script.
func DefaultPrompts() *PromptCatalog {
	return &PromptCatalog{
		Greeting: `السلام علیکم! میں FOS سروے سینٹر سے بول رہا ہوں۔
کیا آپ {{.Name}} صاحب سے بات ہو رہی ہے؟`,

		IdentityConfirmed: `شکریہ {{.Name}} صاحب۔`,

		Intro: `آج میں آپ سے کچھ سوالات پوچھنا چاہتا ہوں۔
آپ کے جوابات مکمل طور پر رازدارانہ رہیں گے اور یہ ہماری کمپنی کو بہتر بنانے میں مدد کریں گے۔
آئیے شروع کرتے ہیں۔`,

		AskQuestion: `سوال نمبر {{.Number}}: {{.Text}}`,

		AcknowledgeNext: `شکریہ، اگلا سوال سنیں۔`,

		RepeatRequest: `براہ کرم دوبارہ بتائیں، مجھے آپ کی بات واضح نہیں سمجھ آئی۔`,

		CallLater: `معذرت، ابھی آپ مصروف لگ رہے ہیں۔ ہم بعد میں دوبارہ رابطہ کریں گے۔
اللہ حافظ!`,

		Closing: `بہت شکریہ آپ کے وقت کا۔ آپ کے جوابات محفوظ ہو گئے ہیں۔
اگر کوئی شکایت ہو تو FOS ہیلپ لائن پر کال کریں: 0800-91299
اللہ حافظ!`,

		Skipping: `ٹھیک ہے، آگے بڑھتے ہیں۔`,

		TechnicalError: `معذرت، کچھ تکنیکی مسئلہ ہو گیا۔ ہم جلد دوبارہ رابطہ کریں گے۔
اللہ حافظ!`,
	}
}

// Snapshot returns a race-free copy for use within one turn.
func (p *PromptCatalog) Snapshot() *PromptCatalog {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &PromptCatalog{
		Greeting:          p.Greeting,
		IdentityConfirmed: p.IdentityConfirmed,
		Intro:             p.Intro,
		AskQuestion:       p.AskQuestion,
		AcknowledgeNext:   p.AcknowledgeNext,
		RepeatRequest:     p.RepeatRequest,
		CallLater:         p.CallLater,
		Closing:           p.Closing,
		Skipping:          p.Skipping,
		TechnicalError:    p.TechnicalError,
	}
}

// Apply overwrites catalog entries from a key/value override map, matching
// the mapstructure keys above. Unknown keys and empty values are ignored.
// Safe to call while the catalog serves live sessions.
func (p *PromptCatalog) Apply(overrides map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, val := range overrides {
		if val == "" {
			continue
		}
		switch key {
		case "greeting":
			p.Greeting = val
		case "identity_confirmed":
			p.IdentityConfirmed = val
		case "intro":
			p.Intro = val
		case "ask_question":
			p.AskQuestion = val
		case "acknowledge_next":
			p.AcknowledgeNext = val
		case "repeat_request":
			p.RepeatRequest = val
		case "call_later":
			p.CallLater = val
		case "closing":
			p.Closing = val
		case "skipping":
			p.Skipping = val
		case "technical_error":
			p.TechnicalError = val
		}
	}
}

// render executes a template, falling back to the raw template text when it
// does not parse. A malformed prompt override must never silence the agent.
func render(tmpl string, data map[string]any) string {
	out, err := util.RenderTemplate(tmpl, data)
	if err != nil {
		return tmpl
	}
	return out
}

// FormatGreeting renders the opening utterance for the named respondent.
func (p *PromptCatalog) FormatGreeting(name string) string {
	return render(p.Greeting, map[string]any{"Name": name})
}

// FormatIdentityConfirmed renders the post-confirmation thank-you line.
func (p *PromptCatalog) FormatIdentityConfirmed(name string) string {
	return render(p.IdentityConfirmed, map[string]any{"Name": name})
}

// FormatQuestion renders a numbered question prompt.
func (p *PromptCatalog) FormatQuestion(number int, text string) string {
	return render(p.AskQuestion, map[string]any{"Number": number, "Text": text})
}
