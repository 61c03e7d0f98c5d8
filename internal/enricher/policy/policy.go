// Package policy implements the per-owner field-visibility policy applied to
// enriched decisions before publishing.
package policy

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"privacy-consent/internal/enricher/models"
)

// Config is the wire/JSON shape of the policy configuration.
type Config struct {
	DefaultFields   []string         `json:"default_fields"`
	OwnerExtensions map[int][]string `json:"owner_extensions"`
}

// Policy decides which fields of an enriched decision a data owner may see.
// Immutable after construction.
type Policy struct {
	defaultFields   map[string]struct{}
	ownerExtensions map[int]map[string]struct{}
}

// Default returns the shipped policy: the stable identity fields for every
// owner, with the descriptive text fields opened up for owner 6.
func Default() *Policy {
	return New(Config{
		DefaultFields: []string{
			"uuid",
			"user_id",
			"id_type_id",
			"ids",
			"is_agreed",
			"consent_expression_id",
			"consent_id",
			"consent_type_id",
			"change_context",
			"owner_id",
			"product_id",
			"decision_id",
			"last_decision_date",
			"decision_audit_date",
			"user_consent_source_id",
		},
		OwnerExtensions: map[int][]string{
			6: {
				"consent_name",
				"consent_expression_name",
				"consent_expression_description",
				"title",
				"short_text",
				"long_text",
				"presented_language",
			},
		},
	})
}

// New builds a policy from configuration.
func New(cfg Config) *Policy {
	p := &Policy{
		defaultFields:   make(map[string]struct{}, len(cfg.DefaultFields)),
		ownerExtensions: make(map[int]map[string]struct{}, len(cfg.OwnerExtensions)),
	}
	for _, field := range cfg.DefaultFields {
		p.defaultFields[field] = struct{}{}
	}
	for ownerID, fields := range cfg.OwnerExtensions {
		set := make(map[string]struct{}, len(fields))
		for _, field := range fields {
			set[field] = struct{}{}
		}
		p.ownerExtensions[ownerID] = set
	}
	return p
}

// ParseJSON builds a policy from a JSON document, typically loaded from an
// environment variable or config file.
func ParseJSON(raw []byte) (*Policy, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse visibility policy: %w", err)
	}
	return New(cfg), nil
}

// EffectiveFieldSet is the union of the default fields and the owner's
// extensions. An owner with no configured extensions falls back to the
// default set; that is deliberate, never an error.
func (p *Policy) EffectiveFieldSet(ownerID *int) map[string]struct{} {
	fields := make(map[string]struct{}, len(p.defaultFields))
	for field := range p.defaultFields {
		fields[field] = struct{}{}
	}
	if ownerID == nil {
		return fields
	}
	for field := range p.ownerExtensions[*ownerID] {
		fields[field] = struct{}{}
	}
	return fields
}

// Apply clears every maskable field not named in the field set to its absent
// representation. Required identity fields pass through untouched.
func (p *Policy) Apply(record *models.EnrichedDecision, fields map[string]struct{}) *models.EnrichedDecision {
	if record == nil {
		return nil
	}

	retain := func(name string) bool {
		_, ok := fields[name]
		return ok
	}

	if !retain("consent_name") {
		record.ConsentName = nil
	}
	if !retain("consent_expression_name") {
		record.ConsentExpressionName = nil
	}
	if !retain("consent_expression_description") {
		record.ConsentExpressionDescription = nil
	}
	if !retain("title") {
		record.Title = nil
	}
	if !retain("short_text") {
		record.ShortText = nil
	}
	if !retain("long_text") {
		record.LongText = nil
	}
	if !retain("presented_language") {
		record.PresentedLanguage = nil
	}
	if !retain("uuid") {
		record.UUID = uuid.Nil
	}
	return record
}
