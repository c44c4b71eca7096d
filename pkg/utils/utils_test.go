package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/utils"
)

func Test_NormalizeMobile(t *testing.T) {
	cases := map[string]string{
		"9876543210":      "9876543210",
		"+91 98765 43210": "9876543210",
		"91-9876543210":   "9876543210",
		"09876543210":     "9876543210",
		"(987) 654-3210":  "9876543210",
	}
	for in, want := range cases {
		assert.Equal(t, want, utils.NormalizeMobile(in), "input %q", in)
	}
}

func Test_IsMobile(t *testing.T) {
	assert.True(t, utils.IsMobile("9876543210"))
	assert.True(t, utils.IsMobile("+919876543210"))
	assert.False(t, utils.IsMobile("1234567890")) // must start 6-9
	assert.False(t, utils.IsMobile("98765"))
}

func Test_IsOTP(t *testing.T) {
	assert.True(t, utils.IsOTP("112233"))
	assert.True(t, utils.IsOTP("4321"))
	assert.False(t, utils.IsOTP("12"))
	assert.False(t, utils.IsOTP("abc123"))
}

func Test_ExtractDigitRun(t *testing.T) {
	assert.Equal(t, "112233", utils.ExtractDigitRun("my otp is 112233 thanks", 6))
	assert.Equal(t, "9876543210", utils.ExtractDigitRun("change to 9876543210", 10))
	assert.Equal(t, "", utils.ExtractDigitRun("no digits here", 6))
}

func Test_ExtractEmail(t *testing.T) {
	assert.Equal(t, "asha.rao@gov.in", utils.ExtractEmail("update it to asha.rao@gov.in please"))
	assert.Equal(t, "", utils.ExtractEmail("no address"))
}
