package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validClient() ClientData {
	return ClientData{
		LLCName:     "Acme Holdings LLC",
		LegalName:   "Jordan Smith",
		DateOfBirth: "1990-04-12",
		Nationality: "Canadian",
		Phone:       "+1 415-555-0100",
		Address:     "1 Market St, San Francisco, CA",
		Email:       "jordan@example.com",
	}
}

func TestClientDataValid(t *testing.T) {
	require.NoError(t, validClient().Validate())
}

func TestClientDataFieldErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ClientData)
		field  string
	}{
		{"missing llc name", func(c *ClientData) { c.LLCName = "" }, "llc_name"},
		{"missing legal name", func(c *ClientData) { c.LegalName = "" }, "legal_name"},
		{"missing nationality", func(c *ClientData) { c.Nationality = "" }, "nationality"},
		{"missing address", func(c *ClientData) { c.Address = "" }, "address"},
		{"short phone", func(c *ClientData) { c.Phone = "12345" }, "phone"},
		{"phone without digits", func(c *ClientData) { c.Phone = "----------" }, "phone"},
		{"phone padded with separators", func(c *ClientData) { c.Phone = "+1 415 - - - 555" }, "phone"},
		{"letters in phone", func(c *ClientData) { c.Phone = "call me maybe" }, "phone"},
		{"email without domain dot", func(c *ClientData) { c.Email = "jordan@example" }, "email"},
		{"email with space", func(c *ClientData) { c.Email = "jor dan@example.com" }, "email"},
		{"date wrong layout", func(c *ClientData) { c.DateOfBirth = "12/04/1990" }, "date_of_birth"},
		{"date not on calendar", func(c *ClientData) { c.DateOfBirth = "2023-02-30" }, "date_of_birth"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validClient()
			tc.mutate(&c)

			err := c.Validate()
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.Contains(t, ve.Fields, tc.field)
			require.Len(t, ve.Fields, 1)
		})
	}
}

func TestClientDataReportsEveryField(t *testing.T) {
	err := ClientData{Phone: "x", Email: "y"}.Validate()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Fields, 7)
	require.Equal(t, "must be a valid phone number", ve.Fields["phone"])
	require.Equal(t, "is required", ve.Fields["llc_name"])
}

func TestClientDataNormalize(t *testing.T) {
	c := validClient()
	c.Email = "  Jordan@Example.COM "
	c.LLCName = " Acme Holdings LLC\n"

	n := c.Normalize()
	require.Equal(t, "jordan@example.com", n.Email)
	require.Equal(t, "Acme Holdings LLC", n.LLCName)
	require.NoError(t, n.Validate())
}
