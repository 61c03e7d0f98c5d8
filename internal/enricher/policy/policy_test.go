package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privacy-consent/internal/enricher/models"
)

func strPtr(s string) *string { return &s }

func TestEffectiveFieldSet_UnknownOwner(t *testing.T) {
	p := Default()
	owner := 999

	fields := p.EffectiveFieldSet(&owner)

	assert.Len(t, fields, 15)
	assert.Contains(t, fields, "uuid")
	assert.Contains(t, fields, "consent_id")
	assert.NotContains(t, fields, "consent_name")
	assert.NotContains(t, fields, "title")
}

func TestEffectiveFieldSet_ExtendedOwner(t *testing.T) {
	p := Default()
	owner := 6

	fields := p.EffectiveFieldSet(&owner)

	assert.Len(t, fields, 22)
	assert.Contains(t, fields, "uuid")
	assert.Contains(t, fields, "consent_name")
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "short_text")
	assert.Contains(t, fields, "long_text")
	assert.Contains(t, fields, "presented_language")
}

func TestEffectiveFieldSet_NilOwner(t *testing.T) {
	p := Default()
	fields := p.EffectiveFieldSet(nil)
	assert.Len(t, fields, 15)
}

func enrichedFixture() *models.EnrichedDecision {
	return &models.EnrichedDecision{
		UUID:                         uuid.New(),
		UserID:                       strPtr("222"),
		IsAgreed:                     true,
		ConsentName:                  strPtr("newsletter"),
		ConsentExpressionName:        strPtr("newsletter-optin"),
		ConsentExpressionDescription: strPtr("weekly newsletter"),
		Title:                        strPtr("Nyhedsbrev"),
		ShortText:                    strPtr("short"),
		LongText:                     strPtr("long"),
		PresentedLanguage:            strPtr("da"),
	}
}

func TestApply_ExtendedOwnerRetainsDescriptiveFields(t *testing.T) {
	p := Default()
	owner := 6

	record := p.Apply(enrichedFixture(), p.EffectiveFieldSet(&owner))

	require.NotNil(t, record)
	assert.NotNil(t, record.Title)
	assert.NotNil(t, record.ConsentName)
	assert.NotNil(t, record.LongText)
	assert.NotEqual(t, uuid.Nil, record.UUID)
}

func TestApply_DefaultOwnerMasksDescriptiveFields(t *testing.T) {
	p := Default()
	owner := 999

	record := p.Apply(enrichedFixture(), p.EffectiveFieldSet(&owner))

	require.NotNil(t, record)
	assert.Nil(t, record.Title)
	assert.Nil(t, record.ConsentName)
	assert.Nil(t, record.ConsentExpressionName)
	assert.Nil(t, record.ConsentExpressionDescription)
	assert.Nil(t, record.ShortText)
	assert.Nil(t, record.LongText)
	assert.Nil(t, record.PresentedLanguage)

	// Non-maskable fields survive.
	assert.True(t, record.IsAgreed)
	require.NotNil(t, record.UserID)
	assert.Equal(t, "222", *record.UserID)
}

func TestApply_MasksUUIDWhenExcluded(t *testing.T) {
	p := New(Config{DefaultFields: []string{"user_id", "is_agreed", "consent_id"}})

	record := p.Apply(enrichedFixture(), p.EffectiveFieldSet(nil))

	require.NotNil(t, record)
	assert.Equal(t, uuid.Nil, record.UUID)
}

func TestApply_NilRecord(t *testing.T) {
	p := Default()
	assert.Nil(t, p.Apply(nil, p.EffectiveFieldSet(nil)))
}

func TestParseJSON(t *testing.T) {
	raw := []byte(`{
		"default_fields": ["uuid", "user_id", "is_agreed", "consent_id"],
		"owner_extensions": {"6": ["title"]}
	}`)

	p, err := ParseJSON(raw)
	require.NoError(t, err)

	owner := 6
	fields := p.EffectiveFieldSet(&owner)
	assert.Len(t, fields, 5)
	assert.Contains(t, fields, "title")
}

func TestParseJSON_Invalid(t *testing.T) {
	_, err := ParseJSON([]byte("{"))
	assert.Error(t, err)
}
