// Package testutil provides shared fixtures for tests across the module.
package testutil

import (
	"encoding/json"

	decisionmodels "privacy-consent/internal/decision/models"
)

// Canonical catalog values used by the seed helpers and the test suites.
// Owner 6 carries an extended field-visibility policy; owner 7 falls back to
// the default field set.
const (
	UserID   = "222"
	IDTypeID = 1

	ConsentTypeID       = 10
	ConsentID           = 30
	ConsentExpressionID = 301

	ExtendedOwnerID = 6
	DefaultOwnerID  = 7

	SourceID = 3
	Language = "en"
)

// DecisionRequest builds a wire-shape decision item for the canonical user.
func DecisionRequest(expressionID int, isAgreed bool) decisionmodels.DecisionRequest {
	return decisionmodels.DecisionRequest{
		UserID:              UserID,
		IDTypeID:            IDTypeID,
		ConsentExpressionID: expressionID,
		IsAgreed:            isAgreed,
		UserConsentSourceID: SourceID,
		PresentedLanguage:   Language,
		ChangeContext:       json.RawMessage(`{"origin":"test"}`),
	}
}

// DecisionInput is the service-layer counterpart of DecisionRequest.
func DecisionInput(expressionID int, isAgreed bool) decisionmodels.DecisionInput {
	return DecisionRequest(expressionID, isAgreed).Input()
}
