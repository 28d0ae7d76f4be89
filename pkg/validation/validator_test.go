package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customerPayload struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,emailfmt"`
	Phone string `json:"phone" binding:"required,digits"`
}

func TestToDetailsFieldMessages(t *testing.T) {
	Init()

	err := binding.Validator.ValidateStruct(customerPayload{Name: "", Email: "not-an-email", Phone: "555-abc"})
	require.Error(t, err)

	details := ToDetails(err)
	assert.Equal(t, "This field is required.", details["name"])
	assert.Equal(t, "Enter a valid email address.", details["email"])
	assert.Equal(t, "Enter a valid phone number.", details["phone"])
}

func TestToDetailsAcceptsValidPayload(t *testing.T) {
	Init()

	err := binding.Validator.ValidateStruct(customerPayload{Name: "Ada", Email: "ada@example.com", Phone: "5550001111"})
	assert.NoError(t, err)
}

func TestToDetailsJSONErrors(t *testing.T) {
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(&json.SyntaxError{}))
	assert.Equal(t, map[string]string{"payload": "invalid payload"}, ToDetails(errors.New("boom")))
	assert.Nil(t, ToDetails(nil))
}

func TestPhonePattern(t *testing.T) {
	Init()

	type phoneOnly struct {
		Phone string `json:"phone" binding:"digits"`
	}

	assert.NoError(t, binding.Validator.ValidateStruct(phoneOnly{Phone: "0123456789"}))
	assert.Error(t, binding.Validator.ValidateStruct(phoneOnly{Phone: "+15550001111"}))
	assert.Error(t, binding.Validator.ValidateStruct(phoneOnly{Phone: "555 0001"}))
}
