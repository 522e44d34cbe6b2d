package session

import (
	"encoding/json"
	"fmt"

	"github.com/mirakyc/onboarding/types"
)

// ActionType names a session state transition
type ActionType string

const (
	ActionSetUser               ActionType = "SET_USER"
	ActionToggleSidebar         ActionType = "TOGGLE_SIDEBAR"
	ActionSetTheme              ActionType = "SET_THEME"
	ActionSetVerificationStep   ActionType = "SET_VERIFICATION_STEP"
	ActionSetCountry            ActionType = "SET_COUNTRY"
	ActionSetCity               ActionType = "SET_CITY"
	ActionSetIssuingCountry     ActionType = "SET_ISSUING_COUNTRY"
	ActionSetIDType             ActionType = "SET_ID_TYPE"
	ActionSetResidentUSA        ActionType = "SET_RESIDENT_USA"
	ActionSetWallet             ActionType = "SET_WALLET"
	ActionSetIDDetails          ActionType = "SET_ID_DETAILS"
	ActionSetDocumentImage      ActionType = "SET_DOCUMENT_IMAGE"
	ActionSetDocumentImageFront ActionType = "SET_DOCUMENT_IMAGE_FRONT"
	ActionSetDocumentImageBack  ActionType = "SET_DOCUMENT_IMAGE_BACK"
	ActionSetSelfieImage        ActionType = "SET_SELFIE_IMAGE"
	ActionSetPersonalInfo       ActionType = "SET_PERSONAL_INFO"
)

// IDTypePassport has no back side to capture
const IDTypePassport = "passport"

// User is the signed-in applicant, if any
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// State is the onboarding form state of one applicant
type State struct {
	User             *User  `json:"user,omitempty"`
	IsSidebarOpen    bool   `json:"isSidebarOpen"`
	Theme            string `json:"theme"`
	VerificationStep int    `json:"verificationStep"`

	SelectedCountry        string `json:"selectedCountry,omitempty"`
	SelectedCity           string `json:"selectedCity,omitempty"`
	SelectedIssuingCountry string `json:"selectedIssuingCountry,omitempty"`
	SelectedIDType         string `json:"selectedIdType,omitempty"`
	IsResidentUSA          bool   `json:"isResidentUSA"`

	ConnectedWallet string `json:"connectedWallet,omitempty"`
	IDNumber        string `json:"idNumber,omitempty"`
	EstimatedGasFee string `json:"estimatedGasFee,omitempty"`
	Blockchain      string `json:"blockchain,omitempty"`

	DocumentImage      string `json:"documentImage,omitempty"`
	DocumentImageFront string `json:"documentImageFront,omitempty"`
	DocumentImageBack  string `json:"documentImageBack,omitempty"`
	SelfieImage        string `json:"selfieImage,omitempty"`

	PersonalInfo *types.PersonalInfo `json:"personalInfo,omitempty"`
}

// InitialState is the state of a fresh session
func InitialState() State {
	return State{
		Theme:            "light",
		VerificationStep: 1,
	}
}

// Action is a single dispatched transition
type Action struct {
	Type    ActionType      `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// IDDetails is the payload of SET_ID_DETAILS
type IDDetails struct {
	IDNumber   string `json:"idNumber"`
	GasFee     string `json:"gasFee"`
	Blockchain string `json:"blockchain"`
}

// Progress is the document capture progress derived from the state
type Progress struct {
	HasDocument      bool `json:"hasDocument"`
	NeedsBackSide    bool `json:"needsBackSide"`
	DocumentComplete bool `json:"documentComplete"`
	CanContinue      bool `json:"canContinue"`
}

// Progress derives what the applicant still has to capture
func (s State) Progress() Progress {
	var p Progress
	p.HasDocument = s.DocumentImageFront != "" || s.DocumentImage != ""
	p.NeedsBackSide = s.SelectedIDType != "" && s.SelectedIDType != IDTypePassport
	p.DocumentComplete = p.HasDocument && (!p.NeedsBackSide || s.DocumentImageBack != "")
	p.CanContinue = p.DocumentComplete && s.SelfieImage != ""
	return p
}

// ActionError is returned when an action cannot be applied to a state
type ActionError struct {
	Err error
}

func (e *ActionError) Error() string { return e.Err.Error() }

func (e *ActionError) Unwrap() error { return e.Err }

func decode(action Action, v interface{}) error {
	if len(action.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", action.Type)
	}
	if err := json.Unmarshal(action.Payload, v); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", action.Type, err)
	}
	return nil
}

// Reduce applies action to state and returns the new state. Unknown actions leave the state unchanged.
func Reduce(current State, action Action) (State, error) {
	var (
		state = current
		err   error
	)

	switch action.Type {
	case ActionSetUser:
		var user *User
		if len(action.Payload) > 0 {
			err = decode(action, &user)
		}
		if err == nil {
			state.User = user
		}
	case ActionToggleSidebar:
		state.IsSidebarOpen = !state.IsSidebarOpen
	case ActionSetTheme:
		err = decode(action, &state.Theme)
	case ActionSetVerificationStep:
		err = decode(action, &state.VerificationStep)
	case ActionSetCountry:
		var country string
		if err = decode(action, &country); err == nil {
			state.SelectedCountry = country
			state.SelectedCity = ""
		}
	case ActionSetCity:
		err = decode(action, &state.SelectedCity)
	case ActionSetIssuingCountry:
		err = decode(action, &state.SelectedIssuingCountry)
	case ActionSetIDType:
		err = decode(action, &state.SelectedIDType)
	case ActionSetResidentUSA:
		err = decode(action, &state.IsResidentUSA)
	case ActionSetWallet:
		err = decode(action, &state.ConnectedWallet)
	case ActionSetIDDetails:
		var details IDDetails
		if err = decode(action, &details); err == nil {
			state.IDNumber = details.IDNumber
			state.EstimatedGasFee = details.GasFee
			state.Blockchain = details.Blockchain
		}
	case ActionSetDocumentImage:
		err = decode(action, &state.DocumentImage)
	case ActionSetDocumentImageFront:
		err = decode(action, &state.DocumentImageFront)
	case ActionSetDocumentImageBack:
		err = decode(action, &state.DocumentImageBack)
	case ActionSetSelfieImage:
		err = decode(action, &state.SelfieImage)
	case ActionSetPersonalInfo:
		var info types.PersonalInfo
		if err = decode(action, &info); err == nil {
			if err = ValidatePersonalInfo(info); err == nil {
				state.PersonalInfo = &info
			}
		}
	}
	if err != nil {
		return current, &ActionError{Err: err}
	}

	return state, nil
}
