// Package call owns the call lifecycle: dialing through the provider,
// tracking status, and initiating the asynchronous evidence producers.
package call

import (
	"time"

	"golang.org/x/text/language"

	id "callvault/pkg/domain"
	dErrors "callvault/pkg/domain-errors"
)

// ResourceType is the ledger resource type for call entries.
const ResourceType = "call"

// Status is the call lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Modulations are the per-call processing flags requested at start time.
type Modulations struct {
	Record        bool   `json:"record"`
	Transcribe    bool   `json:"transcribe"`
	Translate     bool   `json:"translate"`
	TranslateFrom string `json:"translate_from,omitempty"`
	TranslateTo   string `json:"translate_to,omitempty"`
}

// Validate checks the language pair when translation is requested. Codes must
// be well-formed BCP 47 tags; full language names are rejected.
func (m Modulations) Validate() error {
	if !m.Translate {
		return nil
	}
	if err := validateLanguage(m.TranslateFrom); err != nil {
		return err
	}
	return validateLanguage(m.TranslateTo)
}

func validateLanguage(code string) error {
	if code == "" {
		return dErrors.New(dErrors.CodeInvalidLanguage, "translation requires both language codes")
	}
	if _, err := language.Parse(code); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidLanguage, "invalid language code "+code)
	}
	return nil
}

// Call is one monitored call.
type Call struct {
	ID          id.CallID
	OrgID       id.OrgID
	Status      Status
	PhoneNumber string
	CallSID     string
	Modulations Modulations
	StartedAt   *time.Time
	EndedAt     *time.Time
	CreatedBy   id.UserID
	CreatedAt   time.Time
}

// VoiceConfig is an organization's default modulation configuration.
type VoiceConfig struct {
	OrgID       id.OrgID
	Modulations Modulations
	UpdatedAt   time.Time
}

// Capabilities are the per-plan modulation flags an organization may use.
type Capabilities struct {
	Record          bool `json:"record"`
	Transcribe      bool `json:"transcribe"`
	Translate       bool `json:"translate"`
	Survey          bool `json:"survey"`
	SyntheticCaller bool `json:"synthetic_caller"`
}

// CapabilitiesForPlan maps a subscription plan to its capability flags.
// Survey and synthetic callers are not offered on any plan yet.
func CapabilitiesForPlan(plan string) Capabilities {
	switch plan {
	case "paid":
		return Capabilities{Record: true, Transcribe: true, Translate: true}
	default:
		return Capabilities{Record: true}
	}
}
