package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives.
//
// Justification: These are core error primitives used at every trust boundary.
// Unit tests ensure invariants like "wrapped domain errors preserve original code"
// and "errors.Is matches by code" are maintained.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeNotFound, Message: "audit record not found"}
		s.Equal("audit record not found", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodePublishFailed}
		s.Equal("publish_failed", err.Error())
	})
}

func (s *DomainErrorsSuite) TestUnwrap() {
	inner := errors.New("connection refused")
	err := Wrap(inner, CodeIdentityResolution, "identity store unavailable")
	s.ErrorIs(err, inner)
}

func (s *DomainErrorsSuite) TestWrapPreservesDomainCode() {
	original := New(CodeIdentityResolution, "unique constraint retry exhausted")
	wrapped := Wrap(original, CodeInternal, "save decisions failed")

	s.True(HasCode(wrapped, CodeIdentityResolution), "wrapping must preserve the original domain code")
	s.False(HasCode(wrapped, CodeInternal))
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	err := New(CodePublishFailed, "raw channel rejected message")
	s.ErrorIs(err, &Error{Code: CodePublishFailed})
	s.NotErrorIs(err, &Error{Code: CodeNotFound})
}

func (s *DomainErrorsSuite) TestHasCodeOnPlainError() {
	s.False(HasCode(errors.New("plain"), CodeInternal))
	s.False(HasCode(nil, CodeInternal))
}
